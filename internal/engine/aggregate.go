package engine

import (
	"context"
	"strings"
	"time"
)

// Document identifies one candidate markdown file. Name is the base name
// without extension, which is what date resolution works on.
type Document struct {
	Path string
	Name string
}

// Metadata is the parsed companion of a document: frontmatter mapping plus
// resolved outgoing wikilink targets.
type Metadata struct {
	Frontmatter map[string]any
	Links       []string
}

// DocumentSource supplies document listings, content and metadata. The engine
// awaits each call before moving on; implementations need not be safe for
// concurrent use within one aggregation.
type DocumentSource interface {
	// List returns every markdown document under folder, recursively when
	// includeSubfolders is set.
	List(ctx context.Context, folder string, includeSubfolders bool) ([]Document, error)
	// ReadText returns the raw content of a document.
	ReadText(ctx context.Context, doc Document) (string, error)
	// ReadMetadata returns parsed metadata, or nil when none is available.
	ReadMetadata(ctx context.Context, doc Document) (*Metadata, error)
	// ResolveByPath resolves a vault-relative path to a document, returning
	// nil (and no error) when it does not exist.
	ResolveByPath(ctx context.Context, path string) (*Document, error)
}

// Config carries the per-run settings of one aggregation.
type Config struct {
	Folder            string
	IncludeSubfolders bool

	// DateFormat is the pattern a document's base name must match, after
	// DatePrefix and DateSuffix are stripped.
	DateFormat string
	DatePrefix string
	DateSuffix string

	// Explicit window bounds; nil means inferred from the data.
	StartDate *time.Time
	EndDate   *time.Time
}

// Point is one day of a dataset. Valid=false marks a gap, which is distinct
// from a zero value.
type Point struct {
	Date  time.Time
	Value float64
	Valid bool
}

// Dataset is the dense daily series assembled for one query.
type Dataset struct {
	Query *Query
	// UsingTimeValue is set when any contributing value was parsed as a
	// clock time; downstream display treats values as seconds of the day.
	UsingTimeValue bool
	Points         []Point
}

// Result is the output of one aggregation.
type Result struct {
	Datasets []Dataset
	Window   Window
}

// aggregation is the per-run mutable state.
type aggregation struct {
	src        DocumentSource
	cfg        Config
	store      *valueStore
	timeValued map[int]bool

	minDate time.Time
	maxDate time.Time
	seen    bool
}

func (a *aggregation) observeDate(d time.Time) {
	if !a.seen {
		a.minDate, a.maxDate, a.seen = d, d, true
		return
	}
	if d.Before(a.minDate) {
		a.minDate = d
	}
	if d.After(a.maxDate) {
		a.maxDate = d
	}
}

// Aggregate runs the full pipeline: scan per-date documents, scan referenced
// tables, resolve the date window, assemble one dense dataset per query in
// declaration order. The result is deterministic for fixed inputs.
func Aggregate(ctx context.Context, src DocumentSource, queries []*Query, cfg Config) (*Result, error) {
	a := &aggregation{
		src:        src,
		cfg:        cfg,
		store:      newValueStore(),
		timeValued: make(map[int]bool),
	}

	var perDate, tableQueries []*Query
	for _, q := range queries {
		if q.Type == SearchTable {
			tableQueries = append(tableQueries, q)
		} else {
			perDate = append(perDate, q)
		}
	}

	matchers := make(map[int]*matcher)
	for _, q := range perDate {
		switch q.Type {
		case SearchTag, SearchText, SearchDataviewField:
			m, err := compileMatcher(q)
			if err != nil {
				return nil, err
			}
			matchers[q.ID] = m
		}
	}

	needMeta := needsMetadata(perDate)
	needText := needsText(perDate)

	docs, err := src.List(ctx, cfg.Folder, cfg.IncludeSubfolders)
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		date, ok := resolveDocumentDate(doc.Name, cfg)
		if !ok {
			continue
		}
		// Every parsed date feeds the observed extremes, even when the
		// document falls outside the configured bounds: a window that
		// misses all documents must fail as an invalid range, not as an
		// empty vault.
		a.observeDate(date)
		if cfg.StartDate != nil && date.Before(*cfg.StartDate) {
			continue
		}
		if cfg.EndDate != nil && date.After(*cfg.EndDate) {
			continue
		}

		var meta *Metadata
		if needMeta {
			meta, err = src.ReadMetadata(ctx, doc)
			if err != nil {
				return nil, err
			}
		}
		var text string
		if needText {
			text, err = src.ReadText(ctx, doc)
			if err != nil {
				return nil, err
			}
		}

		key := FormatDate(date, cfg.DateFormat)
		for _, q := range perDate {
			a.extractFromDocument(key, q, meta, text, matchers[q.ID])
		}
	}

	for _, ref := range groupTableQueries(tableQueries) {
		if err := a.extractTable(ctx, ref); err != nil {
			return nil, err
		}
	}

	window, err := resolveWindow(cfg, a.minDate, a.maxDate, a.seen)
	if err != nil {
		return nil, err
	}

	return &Result{
		Datasets: a.assemble(queries, window),
		Window:   window,
	}, nil
}

// extractFromDocument runs every applicable extractor for one query against
// one document and appends the resulting observation, if any.
func (a *aggregation) extractFromDocument(dateKey string, q *Query, meta *Metadata, text string, m *matcher) {
	switch q.Type {
	case SearchTag:
		// A tag query matches both the frontmatter tags field and inline
		// hashtags; their observations accumulate by sum at assembly.
		if meta != nil && meta.Frontmatter != nil {
			if v, ok := extractFrontmatterTags(meta.Frontmatter, q); ok {
				a.store.add(dateKey, q.ID, v)
			}
		}
		a.scanText(dateKey, text, q, m)

	case SearchFrontmatter:
		if meta == nil || meta.Frontmatter == nil {
			return
		}
		if v, exists, isTime := extractFrontmatterKey(meta.Frontmatter, q); exists {
			a.store.add(dateKey, q.ID, v)
			if isTime {
				a.timeValued[q.ID] = true
			}
		}

	case SearchWiki:
		if meta == nil {
			return
		}
		if v, ok := extractWikilinks(meta.Links, q); ok {
			a.store.add(dateKey, q.ID, v)
		}

	case SearchText, SearchDataviewField:
		a.scanText(dateKey, text, q, m)
	}
}

func (a *aggregation) scanText(dateKey, text string, q *Query, m *matcher) {
	if m == nil || text == "" {
		return
	}
	acc := m.scan(text, q)
	if v, exists := acc.observation(); exists {
		a.store.add(dateKey, q.ID, v)
		if acc.timeValue {
			a.timeValued[q.ID] = true
		}
	}
}

// resolveDocumentDate strips the configured prefix/suffix from a base name
// and strictly parses the remainder. Names that do not match contribute
// nothing.
func resolveDocumentDate(name string, cfg Config) (time.Time, bool) {
	s := name
	if cfg.DatePrefix != "" {
		s = strings.TrimPrefix(s, cfg.DatePrefix)
	}
	if cfg.DateSuffix != "" {
		s = strings.TrimSuffix(s, cfg.DateSuffix)
	}
	return ParseDateStrict(s, cfg.DateFormat)
}

// assemble replays the store into one dense series per query: every calendar
// day of the window appears exactly once, valid when at least one non-nil
// observation exists for that (day, query).
func (a *aggregation) assemble(queries []*Query, w Window) []Dataset {
	datasets := make([]Dataset, 0, len(queries))
	for _, q := range queries {
		ds := Dataset{
			Query:          q,
			UsingTimeValue: a.timeValued[q.ID],
			Points:         make([]Point, 0, w.Days()),
		}
		for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
			p := Point{Date: d}
			if sum, ok := a.store.sum(FormatDate(d, a.cfg.DateFormat), q.ID); ok {
				p.Value = sum
				p.Valid = true
			}
			ds.Points = append(ds.Points, p)
		}
		datasets = append(datasets, ds)
	}
	return datasets
}
