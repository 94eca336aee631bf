package engine

import "testing"

func fv(f float64) *float64 { return &f }

func TestExtractFrontmatterTags(t *testing.T) {
	fm := map[string]any{"tags": []any{"exercise", "exercise/pushup", "diet"}}
	q := NewQuery(0, SearchTag, "exercise")

	v, ok := extractFrontmatterTags(fm, q)
	if !ok || v == nil {
		t.Fatalf("observation = %v, %v", v, ok)
	}
	// Exact match plus nested "exercise/pushup" prefix match.
	if *v != 2 {
		t.Errorf("measure = %v, want 2", *v)
	}
}

func TestExtractFrontmatterTags_ScalarField(t *testing.T) {
	fm := map[string]any{"tags": "daily, exercise"}
	v, ok := extractFrontmatterTags(fm, NewQuery(0, SearchTag, "exercise"))
	if !ok || v == nil || *v != 1 {
		t.Errorf("observation = %v, %v", v, ok)
	}
}

func TestExtractFrontmatterTags_NoMatchMeansNoObservation(t *testing.T) {
	fm := map[string]any{"tags": []any{"diet"}}
	if _, ok := extractFrontmatterTags(fm, NewQuery(0, SearchTag, "exercise")); ok {
		t.Error("expected no observation for an unmatched tags field")
	}
	if _, ok := extractFrontmatterTags(map[string]any{}, NewQuery(0, SearchTag, "exercise")); ok {
		t.Error("expected no observation when tags field is absent")
	}
}

func TestExtractFrontmatterKey_Number(t *testing.T) {
	fm := map[string]any{"weight": "72.5"}
	v, exists, isTime := extractFrontmatterKey(fm, NewQuery(0, SearchFrontmatter, "weight"))
	if !exists || v == nil || *v != 72.5 || isTime {
		t.Errorf("got (%v, %v, %v)", v, exists, isTime)
	}
}

func TestExtractFrontmatterKey_TimeValue(t *testing.T) {
	fm := map[string]any{"wakeup": "01:30"}
	v, exists, isTime := extractFrontmatterKey(fm, NewQuery(0, SearchFrontmatter, "wakeup"))
	if !exists || v == nil {
		t.Fatalf("got (%v, %v, %v)", v, exists, isTime)
	}
	if *v != 5400 || !isTime {
		t.Errorf("value = %v isTime = %v, want 5400 true", *v, isTime)
	}
}

func TestExtractFrontmatterKey_NonNumeric(t *testing.T) {
	fm := map[string]any{"mood": "great"}
	if _, exists, _ := extractFrontmatterKey(fm, NewQuery(0, SearchFrontmatter, "mood")); exists {
		t.Error("expected no observation for a non-numeric value")
	}
}

func TestExtractFrontmatterKey_MultiValueString(t *testing.T) {
	fm := map[string]any{"bp": "120/80"}
	q := NewQuery(0, SearchFrontmatter, "bp[1]")
	v, exists, _ := extractFrontmatterKey(fm, q)
	if !exists || v == nil || *v != 80 {
		t.Errorf("got (%v, %v)", v, exists)
	}
}

func TestExtractFrontmatterKey_MultiValueCommaPriority(t *testing.T) {
	fm := map[string]any{"bp": "120,80"}
	q := NewQuery(0, SearchFrontmatter, "bp[0]")
	v, exists, _ := extractFrontmatterKey(fm, q)
	if !exists || v == nil || *v != 120 {
		t.Errorf("got (%v, %v)", v, exists)
	}
}

func TestExtractFrontmatterKey_MultiValueArray(t *testing.T) {
	fm := map[string]any{"bp": []any{120, 80}}
	q := NewQuery(0, SearchFrontmatter, "bp[1]")
	v, exists, _ := extractFrontmatterKey(fm, q)
	if !exists || v == nil || *v != 80 {
		t.Errorf("got (%v, %v)", v, exists)
	}
}

func TestExtractFrontmatterKey_AccessorOutOfRange(t *testing.T) {
	fm := map[string]any{"bp": "120/80"}
	q := NewQuery(0, SearchFrontmatter, "bp[5]")
	if _, exists, _ := extractFrontmatterKey(fm, q); exists {
		t.Error("expected no observation for an out-of-range accessor")
	}
}

func TestExtractWikilinks(t *testing.T) {
	links := []string{"Gym", "Daily Plan", "Gym"}
	q := NewQuery(0, SearchWiki, "Gym")
	v, ok := extractWikilinks(links, q)
	if !ok || v == nil || *v != 2 {
		t.Errorf("got (%v, %v)", v, ok)
	}
	if _, ok := extractWikilinks(links, NewQuery(0, SearchWiki, "Pool")); ok {
		t.Error("expected no observation without a matching link")
	}
}

func TestInlineTag_SimpleMatches(t *testing.T) {
	q := NewQuery(0, SearchTag, "exercise")
	m, err := compileMatcher(q)
	if err != nil {
		t.Fatal(err)
	}
	acc := m.scan("did #exercise today and #exercise again\n#exercise/pushup too", q)
	v, exists := acc.observation()
	if !exists || v == nil {
		t.Fatalf("observation = %v, %v", v, exists)
	}
	// Two plain hits plus one nested hit, constValue 1 each.
	if *v != 3 {
		t.Errorf("sum = %v, want 3", *v)
	}
}

func TestInlineTag_AttachedValues(t *testing.T) {
	q := NewQuery(0, SearchTag, "pushup")
	m, err := compileMatcher(q)
	if err != nil {
		t.Fatal(err)
	}
	acc := m.scan("#pushup:10 then #pushup:20.5", q)
	v, exists := acc.observation()
	if !exists || v == nil || *v != 30.5 {
		t.Errorf("observation = %v, %v", v, exists)
	}
}

func TestInlineTag_AttachedTimeValue(t *testing.T) {
	q := NewQuery(0, SearchTag, "wakeup")
	m, err := compileMatcher(q)
	if err != nil {
		t.Fatal(err)
	}
	acc := m.scan("#wakeup:06:30", q)
	v, exists := acc.observation()
	if !exists || v == nil || *v != 23400 {
		t.Errorf("observation = %v, %v", v, exists)
	}
	if !acc.timeValue {
		t.Error("expected time-value flag")
	}
}

func TestInlineTag_IgnoreAttachedValue(t *testing.T) {
	q := NewQuery(0, SearchTag, "pushup")
	q.IgnoreAttachedValue = true
	m, err := compileMatcher(q)
	if err != nil {
		t.Fatal(err)
	}
	acc := m.scan("#pushup:10 then #pushup:20", q)
	v, exists := acc.observation()
	// Each match counts as a simple hit instead.
	if !exists || v == nil || *v != 2 {
		t.Errorf("observation = %v, %v", v, exists)
	}
}

func TestInlineTag_IgnoreZeroValue(t *testing.T) {
	q := NewQuery(0, SearchTag, "pushup")
	q.IgnoreZeroValue = true
	m, err := compileMatcher(q)
	if err != nil {
		t.Fatal(err)
	}

	// A lone zero match does not even mark existence.
	acc := m.scan("#pushup:0", q)
	if _, exists := acc.observation(); exists {
		t.Error("expected no observation for a lone ignored zero")
	}

	// A later non-zero match still contributes normally.
	acc = m.scan("#pushup:0 and #pushup:15", q)
	v, exists := acc.observation()
	if !exists || v == nil || *v != 15 {
		t.Errorf("observation = %v, %v", v, exists)
	}
}

func TestInlineTag_MultiValueAccessor(t *testing.T) {
	q := NewQuery(0, SearchTag, "bp[1]")
	m, err := compileMatcher(q)
	if err != nil {
		t.Fatal(err)
	}
	acc := m.scan("#bp:120/80", q)
	v, exists := acc.observation()
	if !exists || v == nil || *v != 80 {
		t.Errorf("observation = %v, %v", v, exists)
	}
}

func TestInlineTag_UnparseableAttachedValueIsNullObservation(t *testing.T) {
	q := NewQuery(0, SearchTag, "bp[5]")
	m, err := compileMatcher(q)
	if err != nil {
		t.Fatal(err)
	}
	// Values are attached but the accessor is out of range: the match
	// exists, yet no numeric value accumulates.
	acc := m.scan("#bp:120/80", q)
	v, exists := acc.observation()
	if !exists {
		t.Fatal("expected a match to be recorded")
	}
	if v != nil {
		t.Errorf("value = %v, want nil", *v)
	}
}

func TestInlineTag_NoMatchInsideWord(t *testing.T) {
	q := NewQuery(0, SearchTag, "run")
	m, err := compileMatcher(q)
	if err != nil {
		t.Fatal(err)
	}
	acc := m.scan("see http://x/a#run and word#run", q)
	if _, exists := acc.observation(); exists {
		t.Error("hashtag must be line- or space-anchored")
	}
}

func TestInlineTag_NoPrefixMatch(t *testing.T) {
	q := NewQuery(0, SearchTag, "ex")
	m, err := compileMatcher(q)
	if err != nil {
		t.Fatal(err)
	}
	acc := m.scan("#exercise is not #ex", q)
	v, exists := acc.observation()
	if !exists || v == nil || *v != 1 {
		t.Errorf("observation = %v, %v (must not match inside #exercise)", v, exists)
	}
}

func TestDataviewField(t *testing.T) {
	q := NewQuery(0, SearchDataviewField, "calories")
	m, err := compileMatcher(q)
	if err != nil {
		t.Fatal(err)
	}
	acc := m.scan("calories:: 350\n**calories**:: 120", q)
	v, exists := acc.observation()
	if !exists || v == nil || *v != 470 {
		t.Errorf("observation = %v, %v", v, exists)
	}
}

func TestDataviewField_EmptyValueCountsAsSimple(t *testing.T) {
	q := NewQuery(0, SearchDataviewField, "done")
	m, err := compileMatcher(q)
	if err != nil {
		t.Fatal(err)
	}
	acc := m.scan("done::\n", q)
	v, exists := acc.observation()
	if !exists || v == nil || *v != 1 {
		t.Errorf("observation = %v, %v", v, exists)
	}
}

func TestTextSearch_ValueCapture(t *testing.T) {
	q := NewQuery(0, SearchText, `walked (?<value>[0-9.]+) km`)
	m, err := compileMatcher(q)
	if err != nil {
		t.Fatal(err)
	}
	acc := m.scan("walked 2.5 km in the morning\nwalked 1 km later", q)
	v, exists := acc.observation()
	if !exists || v == nil || *v != 3.5 {
		t.Errorf("observation = %v, %v", v, exists)
	}
}

func TestTextSearch_NoCaptureCountsMatches(t *testing.T) {
	q := NewQuery(0, SearchText, `meditat(ed|ion)`)
	q.ConstValue = 2
	m, err := compileMatcher(q)
	if err != nil {
		t.Fatal(err)
	}
	acc := m.scan("meditated twice, meditation log", q)
	v, exists := acc.observation()
	if !exists || v == nil || *v != 4 {
		t.Errorf("observation = %v, %v", v, exists)
	}
}

func TestCompileMatcher_InvalidTextPattern(t *testing.T) {
	q := NewQuery(0, SearchText, `([`)
	if _, err := compileMatcher(q); err == nil {
		t.Error("expected compile error")
	}
}
