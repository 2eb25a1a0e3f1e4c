package models

// Clone returns a deep, independent copy of the model. The copy shares
// no slices with the original, so mutating one never shows through the
// other. Used by the change tracker to retain a last-validated snapshot.
func (m *SemanticModel) Clone() *SemanticModel {
	out := &SemanticModel{
		Name:        m.Name,
		Description: m.Description,
	}
	if m.Tables != nil {
		out.Tables = make([]Table, len(m.Tables))
		for i := range m.Tables {
			out.Tables[i] = m.Tables[i].clone()
		}
	}
	if m.VerifiedQueries != nil {
		out.VerifiedQueries = make([]VerifiedQuery, len(m.VerifiedQueries))
		copy(out.VerifiedQueries, m.VerifiedQueries)
	}
	return out
}

func (t Table) clone() Table {
	out := t
	out.Synonyms = cloneStrings(t.Synonyms)
	if t.Dimensions != nil {
		out.Dimensions = make([]Dimension, len(t.Dimensions))
		for i := range t.Dimensions {
			out.Dimensions[i] = t.Dimensions[i].clone()
		}
	}
	if t.TimeDimensions != nil {
		out.TimeDimensions = make([]TimeDimension, len(t.TimeDimensions))
		for i := range t.TimeDimensions {
			out.TimeDimensions[i] = t.TimeDimensions[i].clone()
		}
	}
	if t.Measures != nil {
		out.Measures = make([]Measure, len(t.Measures))
		for i := range t.Measures {
			out.Measures[i] = t.Measures[i].clone()
		}
	}
	return out
}

func (d Dimension) clone() Dimension {
	out := d
	out.Synonyms = cloneStrings(d.Synonyms)
	out.SampleValues = cloneStrings(d.SampleValues)
	return out
}

func (td TimeDimension) clone() TimeDimension {
	out := td
	out.Synonyms = cloneStrings(td.Synonyms)
	out.SampleValues = cloneStrings(td.SampleValues)
	return out
}

func (ms Measure) clone() Measure {
	out := ms
	out.Synonyms = cloneStrings(ms.Synonyms)
	out.SampleValues = cloneStrings(ms.SampleValues)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
