package engine

import (
	"context"
	"strconv"
	"strings"
)

// markdownExt is appended to table reference paths before resolution.
const markdownExt = ".md"

// tableRef groups the table queries pointing at one markdown table: exactly
// one x-axis (date column) query and any number of y-axis value queries.
// Grouping key is (file path, zero-based table index).
type tableRef struct {
	path       string
	tableIndex int
	x          *Query
	ys         []*Query
}

// groupTableQueries classifies table-typed queries into refs, preserving
// first-seen order so a document backing several queries is read once.
func groupTableQueries(queries []*Query) []*tableRef {
	var refs []*tableRef
	byKey := make(map[string]*tableRef)

	for _, q := range queries {
		if q.ParentTarget == "" || q.Accessor(0) < 0 {
			continue
		}
		key := q.ParentTarget + "\x00" + strconv.Itoa(q.Accessor(0))
		ref, ok := byKey[key]
		if !ok {
			ref = &tableRef{path: q.ParentTarget, tableIndex: q.Accessor(0)}
			byKey[key] = ref
			refs = append(refs, ref)
		}
		if q.UsedAsXDataset {
			if ref.x == nil {
				ref.x = q
			}
		} else {
			ref.ys = append(ref.ys, q)
		}
	}
	return refs
}

// scanTables splits raw markdown into table blocks: each contiguous run of
// lines containing a pipe character, bounded by blank or pipe-free lines or
// the document edges, is one candidate table.
func scanTables(text string) [][]string {
	var tables [][]string
	var current []string

	flush := func() {
		if len(current) > 0 {
			tables = append(tables, current)
			current = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "|") {
			current = append(current, line)
		} else {
			flush()
		}
	}
	flush()
	return tables
}

// splitTableRow returns the edge-trimmed cell tokens of one table line,
// stripping the leading and trailing pipe first.
func splitTableRow(line string) []string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "|")
	s = strings.TrimSuffix(s, "|")
	cells := strings.Split(s, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// extractTable reads one referenced document, locates the requested table
// and feeds observations for every y query, keyed by each row's x date.
// Failures are local: a missing document skips the whole table, a bad row
// or out-of-range column skips just that row or cell.
func (a *aggregation) extractTable(ctx context.Context, ref *tableRef) error {
	if ref.x == nil {
		return nil
	}
	xcol := ref.x.Accessor(1)
	if xcol < 0 {
		return nil
	}

	doc, err := a.src.ResolveByPath(ctx, ref.path+markdownExt)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	text, err := a.src.ReadText(ctx, *doc)
	if err != nil {
		return err
	}

	tables := scanTables(text)
	if ref.tableIndex >= len(tables) {
		return nil
	}
	lines := tables[ref.tableIndex]
	if len(lines) < 2 {
		// Header and separator are mandatory.
		return nil
	}

	for _, line := range lines[2:] {
		cells := splitTableRow(line)
		if xcol >= len(cells) {
			continue
		}
		date, ok := ParseDateStrict(cells[xcol], a.cfg.DateFormat)
		if !ok {
			continue
		}
		// Table-sourced dates share the min/max tracker with per-date
		// documents.
		a.observeDate(date)
		key := FormatDate(date, a.cfg.DateFormat)

		for _, y := range ref.ys {
			col := y.Accessor(1)
			if col < 0 || col >= len(cells) {
				continue
			}
			a.addTableCell(key, cells[col], y)
		}
	}
	return nil
}

// addTableCell parses one y-cell, applying the comma-or-separator split with
// the third accessor choosing among multiple values.
func (a *aggregation) addTableCell(dateKey, cell string, y *Query) {
	parts := splitValues(cell, y.separator())
	s := parts[0]
	if len(parts) > 1 {
		idx := y.Accessor(2)
		if idx < 0 || idx >= len(parts) {
			return
		}
		s = parts[idx]
	}
	v, isTime, ok := ParseTimeOrNumber(s)
	if !ok {
		return
	}
	a.store.add(dateKey, y.ID, &v)
	if isTime {
		a.timeValued[y.ID] = true
	}
}
