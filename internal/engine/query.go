// Package engine extracts numeric time-series data from markdown notes and
// assembles it into dense, date-aligned datasets. It performs no file I/O
// itself: documents arrive through the DocumentSource interface and results
// leave as in-memory Dataset values.
package engine

import "regexp"

// SearchType selects the extraction strategy for one query.
type SearchType int

const (
	SearchFrontmatter SearchType = iota
	SearchTag
	SearchWiki
	SearchText
	SearchDataviewField
	SearchTable
)

// String returns the lowercase name used in tracker definitions.
func (t SearchType) String() string {
	switch t {
	case SearchFrontmatter:
		return "frontmatter"
	case SearchTag:
		return "tag"
	case SearchWiki:
		return "wiki"
	case SearchText:
		return "text"
	case SearchDataviewField:
		return "dvfield"
	case SearchTable:
		return "table"
	}
	return "unknown"
}

// DefaultSeparator splits multi-value fields when a query does not configure
// its own separator. A comma inside the value always takes priority over it.
const DefaultSeparator = "/"

// accessorRe matches up to three trailing [n] index accessors on a target,
// e.g. "key[0]", "logs/tables[1][2]" or "logs/tables[1][2][0]".
var accessorRe = regexp.MustCompile(`^(.+?)\[([0-9]+)\](?:\[([0-9]+)\])?(?:\[([0-9]+)\])?$`)

// Query describes one thing to search for and how matches become numbers.
// Queries are identified by ID; two queries with identical structure but
// different IDs accumulate independently.
type Query struct {
	ID     int
	Type   SearchType
	Target string

	// ParentTarget is the target with index accessors stripped. Empty when
	// the target carries no accessor.
	ParentTarget string
	accessors    [3]int

	// Value interpretation settings, owned by the query itself rather than
	// side tables keyed by ID.
	ConstValue          float64
	IgnoreAttachedValue bool
	IgnoreZeroValue     bool
	Separator           string

	// UsedAsXDataset marks the date column query of a table.
	UsedAsXDataset bool
}

// NewQuery builds a Query, parsing index accessors out of target.
// ConstValue defaults to 1.
func NewQuery(id int, t SearchType, target string) *Query {
	q := &Query{
		ID:         id,
		Type:       t,
		Target:     target,
		ConstValue: 1,
		accessors:  [3]int{-1, -1, -1},
	}
	if m := accessorRe.FindStringSubmatch(target); m != nil {
		q.ParentTarget = m[1]
		for i, g := range m[2:] {
			if g != "" {
				q.accessors[i] = atoiAccessor(g)
			}
		}
	}
	return q
}

// Accessor returns the i-th index accessor, or -1 when unset.
func (q *Query) Accessor(i int) int {
	if i < 0 || i >= len(q.accessors) {
		return -1
	}
	return q.accessors[i]
}

func (q *Query) separator() string {
	if q.Separator == "" {
		return DefaultSeparator
	}
	return q.Separator
}

// tagName returns the hashtag/field name to scan for: the parent target when
// the query selects one element of a multi-value field, otherwise the target.
func (q *Query) tagName() string {
	if q.Accessor(0) >= 0 && q.ParentTarget != "" {
		return q.ParentTarget
	}
	return q.Target
}

func atoiAccessor(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

// needsMetadata reports whether any per-document query requires parsed
// frontmatter or resolved links.
func needsMetadata(queries []*Query) bool {
	for _, q := range queries {
		switch q.Type {
		case SearchFrontmatter, SearchTag, SearchWiki:
			return true
		}
	}
	return false
}

// needsText reports whether any per-document query requires raw content.
func needsText(queries []*Query) bool {
	for _, q := range queries {
		switch q.Type {
		case SearchTag, SearchText, SearchDataviewField:
			return true
		}
	}
	return false
}
