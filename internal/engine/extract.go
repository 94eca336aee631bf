package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// Per-date extractors. Each consumes a document's parsed frontmatter, link
// list, or raw text for one query and yields at most one observation. The
// shared outcome shape:
//
//   - exists=false: the target was absent, no observation at all.
//   - exists=true, value!=nil: the summed numeric contribution.
//   - exists=true, value=nil: matches occurred but none produced a usable
//     number (e.g. attached values present yet unparseable).

// matchAccum folds per-match contributions within a single document.
// Summation is order-independent; matches are still processed in document
// order because the regex cursor only moves forward.
type matchAccum struct {
	sum       float64
	hasValue  bool
	exists    bool
	timeValue bool
}

// addSimple records a match with no attached value: a constValue hit.
// ConstValue is always numeric, so the value flag is set unconditionally.
func (a *matchAccum) addSimple(q *Query) {
	a.sum += q.ConstValue
	a.hasValue = true
	a.exists = true
}

// addAttached records a match with an attached value string, applying the
// comma-or-separator split and, for multi-value fields, the accessor.
func (a *matchAccum) addAttached(raw string, q *Query) {
	parts := splitValues(raw, q.separator())
	if len(parts) == 1 {
		a.parseInto(parts[0], q)
		return
	}
	idx := q.Accessor(0)
	if idx < 0 || idx >= len(parts) {
		// Values were attached but none is selectable; the match still
		// counts toward existence.
		a.exists = true
		return
	}
	a.parseInto(parts[idx], q)
}

func (a *matchAccum) parseInto(s string, q *Query) {
	v, isTime, ok := ParseTimeOrNumber(strings.TrimSpace(s))
	if !ok {
		a.exists = true
		return
	}
	if q.IgnoreZeroValue && v == 0 {
		return
	}
	a.sum += v
	a.hasValue = true
	a.exists = true
	if isTime {
		a.timeValue = true
	}
}

// observation converts the accumulated state into the nullable value to
// store, or reports exists=false when nothing matched.
func (a *matchAccum) observation() (*float64, bool) {
	if !a.exists {
		return nil, false
	}
	if !a.hasValue {
		return nil, true
	}
	v := a.sum
	return &v, true
}

// extractFrontmatterTags scans the frontmatter "tags" field (scalar or list)
// for the query target, matching exact names and "target/..." nested tags.
// Every match contributes ConstValue. A tags field with no match yields no
// observation, never a zero.
func extractFrontmatterTags(fm map[string]any, q *Query) (*float64, bool) {
	raw, ok := fm["tags"]
	if !ok {
		return nil, false
	}
	var tags []string
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			tags = append(tags, strings.TrimSpace(stringify(item)))
		}
	case string:
		for _, t := range strings.Split(v, ",") {
			tags = append(tags, strings.TrimSpace(t))
		}
	default:
		return nil, false
	}

	measure := 0.0
	matched := false
	for _, t := range tags {
		if t == q.Target || strings.HasPrefix(t, q.Target+"/") {
			measure += q.ConstValue
			matched = true
		}
	}
	if !matched {
		return nil, false
	}
	return &measure, true
}

// extractFrontmatterKey looks up the query target as a frontmatter key. When
// the direct key is absent and the target carries an accessor, the parent
// key's multi-value content is split and the accessor element selected.
func extractFrontmatterKey(fm map[string]any, q *Query) (value *float64, exists, timeValue bool) {
	if raw, ok := fm[q.Target]; ok {
		return parseScalar(stringify(raw))
	}
	if q.ParentTarget == "" {
		return nil, false, false
	}
	raw, ok := fm[q.ParentTarget]
	if !ok {
		return nil, false, false
	}

	var parts []string
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			parts = append(parts, stringify(item))
		}
	case string:
		parts = splitValues(v, q.separator())
	default:
		return nil, false, false
	}

	idx := q.Accessor(0)
	if idx < 0 || idx >= len(parts) {
		return nil, false, false
	}
	return parseScalar(parts[idx])
}

func parseScalar(s string) (*float64, bool, bool) {
	v, isTime, ok := ParseTimeOrNumber(strings.TrimSpace(s))
	if !ok {
		return nil, false, false
	}
	return &v, true, isTime
}

// extractWikilinks counts resolved outgoing links equal to the target, each
// contributing ConstValue. No matching link means no observation.
func extractWikilinks(links []string, q *Query) (*float64, bool) {
	measure := 0.0
	matched := false
	for _, link := range links {
		if link == q.Target {
			measure += q.ConstValue
			matched = true
		}
	}
	if !matched {
		return nil, false
	}
	return &measure, true
}

// matcher is a compiled text scanner for one Tag/Text/DataviewField query.
type matcher struct {
	re       *regexp.Regexp
	valueIdx int // submatch index of the attached/captured value, -1 if none
}

// valueChars is the character class of an attached value: numbers, times,
// multi-value separators.
const valueChars = `[0-9A-Za-z.,:@/\-]`

// compileMatcher builds the scanning regex for a query.
func compileMatcher(q *Query) (*matcher, error) {
	switch q.Type {
	case SearchTag:
		// Line-anchored hashtag with optional nested /segments and an
		// optional :value suffix. The value must start with a digit, dot
		// or sign.
		pat := `(?m)(?:^|\s)#` + regexp.QuoteMeta(q.tagName()) +
			`\b(?:/[\w-]+)*(?::([0-9.\-]` + valueChars + `*)?)?`
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("engine: compile tag pattern for %q: %w", q.Target, err)
		}
		return &matcher{re: re, valueIdx: 1}, nil

	case SearchDataviewField:
		// key:: value inline annotation, optionally bold-wrapped.
		pat := `(?m)(?:^|\s)\*{0,2}` + regexp.QuoteMeta(q.tagName()) +
			`\*{0,2}::[ \t]*(` + valueChars + `(?:` + valueChars + `| )*)?`
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("engine: compile field pattern for %q: %w", q.Target, err)
		}
		return &matcher{re: re, valueIdx: 1}, nil

	case SearchText:
		// The target is itself the pattern. Accept the common named-group
		// spelling (?<value>...) alongside Go's (?P<value>...).
		pat := "(?m)" + strings.ReplaceAll(q.Target, "(?<", "(?P<")
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("engine: compile text pattern %q: %w", q.Target, err)
		}
		valueIdx := -1
		for i, name := range re.SubexpNames() {
			if name == "value" {
				valueIdx = i
				break
			}
		}
		return &matcher{re: re, valueIdx: valueIdx}, nil
	}
	return nil, fmt.Errorf("engine: query %q has no text matcher", q.Target)
}

// scan runs the matcher over content and accumulates contributions per the
// query's attached-value rules.
func (m *matcher) scan(content string, q *Query) matchAccum {
	var acc matchAccum
	for _, sub := range m.re.FindAllStringSubmatch(content, -1) {
		attached := ""
		if m.valueIdx >= 0 && m.valueIdx < len(sub) {
			attached = strings.TrimSpace(sub[m.valueIdx])
		}
		if attached == "" || q.IgnoreAttachedValue {
			acc.addSimple(q)
			continue
		}
		acc.addAttached(attached, q)
	}
	return acc
}

// stringify renders a frontmatter scalar the way YAML presented it.
func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
