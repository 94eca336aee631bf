package trackers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/dagaz/internal/engine"
)

const sampleDef = `name: exercise
folder: daily
date_format: YYYY-MM-DD
start_date: 2023-01-01
separator: "/"
queries:
  - type: tag
    target: pushup
  - type: frontmatter
    target: weight
    ignore_zero_value: true
  - type: table
    target: logs/history[0][0]
    used_as_x: true
  - type: table
    target: logs/history[0][1]
    const_value: 2
`

func writeDef(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Build(t *testing.T) {
	dir := t.TempDir()
	path := writeDef(t, dir, "exercise.yaml", sampleDef)

	d, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg, queries, err := d.Build()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Folder != "daily" || !cfg.IncludeSubfolders {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.StartDate == nil || cfg.StartDate.Format("2006-01-02") != "2023-01-01" {
		t.Errorf("start = %v", cfg.StartDate)
	}
	if cfg.EndDate != nil {
		t.Errorf("end = %v, want nil", cfg.EndDate)
	}

	if len(queries) != 4 {
		t.Fatalf("len(queries) = %d", len(queries))
	}
	if queries[0].Type != engine.SearchTag || queries[0].ID != 0 {
		t.Errorf("q0 = %+v", queries[0])
	}
	if !queries[1].IgnoreZeroValue {
		t.Error("q1 must ignore zero values")
	}
	if !queries[2].UsedAsXDataset || queries[2].Type != engine.SearchTable {
		t.Errorf("q2 = %+v", queries[2])
	}
	if queries[3].ConstValue != 2 {
		t.Errorf("q3 constValue = %v", queries[3].ConstValue)
	}
	if queries[0].Separator != "/" {
		t.Errorf("q0 separator = %q, want definition default", queries[0].Separator)
	}
}

func TestLoad_NameFallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	path := writeDef(t, dir, "sleep.yaml", "date_format: YYYY-MM-DD\nqueries:\n  - type: tag\n    target: sleep\n")
	d, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "sleep" {
		t.Errorf("name = %q", d.Name)
	}
}

func TestLoad_RejectsUnknownType(t *testing.T) {
	dir := t.TempDir()
	path := writeDef(t, dir, "bad.yaml", "date_format: YYYY-MM-DD\nqueries:\n  - type: sparql\n    target: x\n")
	if _, err := Load(path); err == nil {
		t.Error("expected validation error for unknown query type")
	}
}

func TestLoad_RejectsMissingDateFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeDef(t, dir, "bad.yaml", "name: x\nqueries:\n  - type: tag\n    target: x\n")
	if _, err := Load(path); err == nil {
		t.Error("expected validation error for missing date_format")
	}
}

func TestBuild_RejectsBadStartDate(t *testing.T) {
	d := &Definition{
		Name:       "x",
		DateFormat: "YYYY-MM-DD",
		StartDate:  "01/05/2023",
		Queries:    []QueryDef{{Type: TypeTag, Target: "x"}},
	}
	if _, _, err := d.Build(); err == nil {
		t.Error("expected error for start_date not matching date_format")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "b.yaml", "name: beta\ndate_format: YYYY-MM-DD\nqueries:\n  - type: tag\n    target: b\n")
	writeDef(t, dir, "a.yaml", "name: alpha\ndate_format: YYYY-MM-DD\nqueries:\n  - type: tag\n    target: a\n")
	writeDef(t, dir, "ignore.txt", "not yaml")

	defs, err := LoadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 2 {
		t.Fatalf("len(defs) = %d", len(defs))
	}
	// Sorted by file name, not tracker name.
	if defs[0].Name != "alpha" || defs[1].Name != "beta" {
		t.Errorf("order = %q, %q", defs[0].Name, defs[1].Name)
	}
}

func TestLoadDir_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "a.yaml", "name: same\ndate_format: YYYY-MM-DD\nqueries:\n  - type: tag\n    target: a\n")
	writeDef(t, dir, "b.yaml", "name: same\ndate_format: YYYY-MM-DD\nqueries:\n  - type: tag\n    target: b\n")
	if _, err := LoadDir(dir); err == nil {
		t.Error("expected duplicate-name error")
	}
}
