package models

// EqualIgnoringVerifiedQueries compares every field of two models except
// VerifiedQueries. The comparison is an explicit field list rather than
// reflection, so excluding a field is a typed decision and adding a field
// without updating this file shows up in review, not at runtime.
//
// nil and empty collections compare equal: an absent field in a decoded
// document must match an emptied collection in an edited one.
func (m *SemanticModel) EqualIgnoringVerifiedQueries(other *SemanticModel) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.Name != other.Name || m.Description != other.Description {
		return false
	}
	if len(m.Tables) != len(other.Tables) {
		return false
	}
	for i := range m.Tables {
		if !m.Tables[i].equal(other.Tables[i]) {
			return false
		}
	}
	return true
}

func (t Table) equal(other Table) bool {
	if t.Name != other.Name ||
		t.Description != other.Description ||
		t.BaseTable != other.BaseTable {
		return false
	}
	if !stringSlicesEqual(t.Synonyms, other.Synonyms) {
		return false
	}
	if len(t.Dimensions) != len(other.Dimensions) ||
		len(t.TimeDimensions) != len(other.TimeDimensions) ||
		len(t.Measures) != len(other.Measures) {
		return false
	}
	for i := range t.Dimensions {
		if !t.Dimensions[i].equal(other.Dimensions[i]) {
			return false
		}
	}
	for i := range t.TimeDimensions {
		if !t.TimeDimensions[i].equal(other.TimeDimensions[i]) {
			return false
		}
	}
	for i := range t.Measures {
		if !t.Measures[i].equal(other.Measures[i]) {
			return false
		}
	}
	return true
}

func (d Dimension) equal(other Dimension) bool {
	return d.Name == other.Name &&
		d.Description == other.Description &&
		d.Expr == other.Expr &&
		d.DataType == other.DataType &&
		d.Unique == other.Unique &&
		stringSlicesEqual(d.Synonyms, other.Synonyms) &&
		stringSlicesEqual(d.SampleValues, other.SampleValues)
}

func (td TimeDimension) equal(other TimeDimension) bool {
	return td.Name == other.Name &&
		td.Description == other.Description &&
		td.Expr == other.Expr &&
		td.DataType == other.DataType &&
		td.Unique == other.Unique &&
		stringSlicesEqual(td.Synonyms, other.Synonyms) &&
		stringSlicesEqual(td.SampleValues, other.SampleValues)
}

func (ms Measure) equal(other Measure) bool {
	return ms.Name == other.Name &&
		ms.Description == other.Description &&
		ms.Expr == other.Expr &&
		ms.DataType == other.DataType &&
		ms.DefaultAggregation == other.DefaultAggregation &&
		stringSlicesEqual(ms.Synonyms, other.Synonyms) &&
		stringSlicesEqual(ms.SampleValues, other.SampleValues)
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
