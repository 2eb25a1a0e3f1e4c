package models

import (
	"fmt"

	"github.com/modelsmith-ai/modelsmith/pkg/apperrors"
)

// AddTable appends a logical table to the model. The duplicate-name check
// runs here, at commit time, so a table added between the editor opening
// and the commit is still caught. The model is unchanged on failure.
func (m *SemanticModel) AddTable(t Table) error {
	if m.FindTable(t.Name) != nil {
		return fmt.Errorf("%w: %q", apperrors.ErrDuplicateTable, t.Name)
	}
	m.Tables = append(m.Tables, t)
	return nil
}

// FindTable returns a live reference to the named table, or nil.
func (m *SemanticModel) FindTable(name string) *Table {
	for i := range m.Tables {
		if m.Tables[i].Name == name {
			return &m.Tables[i]
		}
	}
	return nil
}

// DeleteTable removes the table at idx, preserving the order of the rest.
// Out-of-range indexes are a no-op; stale delete clicks from a re-rendered
// list arrive after the collection has already shrunk.
func (m *SemanticModel) DeleteTable(idx int) {
	if idx < 0 || idx >= len(m.Tables) {
		return
	}
	m.Tables = append(m.Tables[:idx], m.Tables[idx+1:]...)
}

// DeleteDimension removes the dimension at idx. No-op when out of range.
func (t *Table) DeleteDimension(idx int) {
	if idx < 0 || idx >= len(t.Dimensions) {
		return
	}
	t.Dimensions = append(t.Dimensions[:idx], t.Dimensions[idx+1:]...)
}

// DeleteMeasure removes the measure at idx. No-op when out of range.
func (t *Table) DeleteMeasure(idx int) {
	if idx < 0 || idx >= len(t.Measures) {
		return
	}
	t.Measures = append(t.Measures[:idx], t.Measures[idx+1:]...)
}

// DeleteTimeDimension removes the time dimension at idx. No-op when out
// of range.
func (t *Table) DeleteTimeDimension(idx int) {
	if idx < 0 || idx >= len(t.TimeDimensions) {
		return
	}
	t.TimeDimensions = append(t.TimeDimensions[:idx], t.TimeDimensions[idx+1:]...)
}

// compactStrings keeps the non-empty rows of an editor grid in display
// order. Returns nil rather than an empty slice so an all-blank grid
// leaves the field absent in the serialized form.
func compactStrings(rows []string) []string {
	var out []string
	for _, row := range rows {
		if row != "" {
			out = append(out, row)
		}
	}
	return out
}

// ReplaceSynonyms replaces the table's synonyms with the non-empty rows.
func (t *Table) ReplaceSynonyms(rows []string) {
	t.Synonyms = compactStrings(rows)
}

// ReplaceSynonyms replaces the dimension's synonyms with the non-empty rows.
func (d *Dimension) ReplaceSynonyms(rows []string) {
	d.Synonyms = compactStrings(rows)
}

// ReplaceSampleValues replaces the dimension's sample values with the
// non-empty rows.
func (d *Dimension) ReplaceSampleValues(rows []string) {
	d.SampleValues = compactStrings(rows)
}

// ReplaceSynonyms replaces the time dimension's synonyms with the
// non-empty rows.
func (td *TimeDimension) ReplaceSynonyms(rows []string) {
	td.Synonyms = compactStrings(rows)
}

// ReplaceSampleValues replaces the time dimension's sample values with
// the non-empty rows.
func (td *TimeDimension) ReplaceSampleValues(rows []string) {
	td.SampleValues = compactStrings(rows)
}

// ReplaceSynonyms replaces the measure's synonyms with the non-empty rows.
func (ms *Measure) ReplaceSynonyms(rows []string) {
	ms.Synonyms = compactStrings(rows)
}

// ReplaceSampleValues replaces the measure's sample values with the
// non-empty rows.
func (ms *Measure) ReplaceSampleValues(rows []string) {
	ms.SampleValues = compactStrings(rows)
}
