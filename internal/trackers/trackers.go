// Package trackers loads and validates tracker definitions: declarative YAML
// files describing what to extract from the vault and over which date window.
package trackers

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/dagaz/internal/engine"
)

// Query type names accepted in definitions.
const (
	TypeFrontmatter = "frontmatter"
	TypeTag         = "tag"
	TypeWiki        = "wiki"
	TypeText        = "text"
	TypeDVField     = "dvfield"
	TypeTable       = "table"
)

// QueryDef is one search specification inside a tracker definition.
type QueryDef struct {
	Type                string   `yaml:"type"`
	Target              string   `yaml:"target"`
	ConstValue          *float64 `yaml:"const_value"`
	IgnoreAttachedValue bool     `yaml:"ignore_attached_value"`
	IgnoreZeroValue     bool     `yaml:"ignore_zero_value"`
	Separator           string   `yaml:"separator"`
	UsedAsX             bool     `yaml:"used_as_x"`
}

// Validate validates a single query definition.
func (q QueryDef) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Type, validation.Required,
			validation.In(TypeFrontmatter, TypeTag, TypeWiki, TypeText, TypeDVField, TypeTable)),
		validation.Field(&q.Target, validation.Required),
	)
}

// Definition describes one tracker: where to look, how filenames map to
// dates, and the queries to run.
type Definition struct {
	Name              string `yaml:"name"`
	Folder            string `yaml:"folder"`
	IncludeSubfolders *bool  `yaml:"include_subfolders"`

	DateFormat string `yaml:"date_format"`
	DatePrefix string `yaml:"date_prefix"`
	DateSuffix string `yaml:"date_suffix"`

	// Optional explicit window bounds, written in DateFormat.
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`

	// Separator is the default multi-value separator for all queries.
	Separator string `yaml:"separator"`

	Queries []QueryDef `yaml:"queries"`
}

// Validate validates the definition.
func (d *Definition) Validate() error {
	if err := validation.ValidateStruct(d,
		validation.Field(&d.Name, validation.Required, validation.Match(nameRe)),
		validation.Field(&d.DateFormat, validation.Required),
		validation.Field(&d.Queries, validation.Required, validation.Length(1, 0)),
	); err != nil {
		return err
	}
	for i, q := range d.Queries {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("query %d: %w", i, err)
		}
	}
	return nil
}

var nameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Build lowers the definition into the engine's run configuration and query
// list. Query IDs follow declaration order.
func (d *Definition) Build() (engine.Config, []*engine.Query, error) {
	cfg := engine.Config{
		Folder:            d.Folder,
		IncludeSubfolders: d.IncludeSubfolders == nil || *d.IncludeSubfolders,
		DateFormat:        d.DateFormat,
		DatePrefix:        d.DatePrefix,
		DateSuffix:        d.DateSuffix,
	}

	if d.StartDate != "" {
		t, ok := engine.ParseDateStrict(d.StartDate, d.DateFormat)
		if !ok {
			return engine.Config{}, nil, fmt.Errorf("trackers: start_date %q does not match %q", d.StartDate, d.DateFormat)
		}
		cfg.StartDate = &t
	}
	if d.EndDate != "" {
		t, ok := engine.ParseDateStrict(d.EndDate, d.DateFormat)
		if !ok {
			return engine.Config{}, nil, fmt.Errorf("trackers: end_date %q does not match %q", d.EndDate, d.DateFormat)
		}
		cfg.EndDate = &t
	}

	queries := make([]*engine.Query, 0, len(d.Queries))
	for i, qd := range d.Queries {
		q := engine.NewQuery(i, searchType(qd.Type), qd.Target)
		if qd.ConstValue != nil {
			q.ConstValue = *qd.ConstValue
		}
		q.IgnoreAttachedValue = qd.IgnoreAttachedValue
		q.IgnoreZeroValue = qd.IgnoreZeroValue
		q.UsedAsXDataset = qd.UsedAsX
		q.Separator = qd.Separator
		if q.Separator == "" {
			q.Separator = d.Separator
		}
		queries = append(queries, q)
	}
	return cfg, queries, nil
}

func searchType(s string) engine.SearchType {
	switch s {
	case TypeFrontmatter:
		return engine.SearchFrontmatter
	case TypeTag:
		return engine.SearchTag
	case TypeWiki:
		return engine.SearchWiki
	case TypeText:
		return engine.SearchText
	case TypeDVField:
		return engine.SearchDataviewField
	case TypeTable:
		return engine.SearchTable
	}
	return engine.SearchTag
}

// Load reads and validates one definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trackers: read %s: %w", path, err)
	}
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("trackers: parse %s: %w", path, err)
	}
	if d.Name == "" {
		// Fall back to the file name without extension.
		base := filepath.Base(path)
		d.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("trackers: validate %s: %w", path, err)
	}
	return &d, nil
}

// LoadDir loads every *.yaml / *.yml definition under dir, sorted by file
// name. Duplicate tracker names are an error.
func LoadDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("trackers: read dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	var defs []*Definition
	seen := make(map[string]struct{})
	for _, name := range files {
		d, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("trackers: duplicate tracker name %q", d.Name)
		}
		seen[d.Name] = struct{}{}
		defs = append(defs, d)
	}
	return defs, nil
}
