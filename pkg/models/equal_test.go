package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModel() *SemanticModel {
	return &SemanticModel{
		Name:        "sales",
		Description: "sales analytics model",
		Tables: []Table{
			{
				Name:        "orders",
				Synonyms:    []string{"purchases"},
				Description: "customer orders",
				BaseTable:   BaseTable{Database: "ANALYTICS", Schema: "PUBLIC", Table: "ORDERS"},
				Dimensions: []Dimension{
					{Name: "status", Expr: "status", DataType: "TEXT", SampleValues: []string{"open", "closed"}},
				},
				TimeDimensions: []TimeDimension{
					{Name: "ordered_at", Expr: "ordered_at", DataType: "TIMESTAMP", Unique: false},
				},
				Measures: []Measure{
					{Name: "total", Expr: "total", DataType: "NUMBER", DefaultAggregation: AggregationSum},
				},
			},
		},
		VerifiedQueries: []VerifiedQuery{
			{Name: "open orders", Question: "how many open orders?", SQL: "SELECT count(*) FROM orders WHERE status = 'open'"},
		},
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := sampleModel()
	clone := orig.Clone()

	require.True(t, orig.EqualIgnoringVerifiedQueries(clone))

	clone.Tables[0].Dimensions[0].SampleValues[0] = "mutated"
	clone.Tables[0].Synonyms[0] = "mutated"
	clone.Tables[0].Measures[0].DefaultAggregation = AggregationAvg
	clone.VerifiedQueries[0].Name = "mutated"

	assert.Equal(t, "open", orig.Tables[0].Dimensions[0].SampleValues[0])
	assert.Equal(t, "purchases", orig.Tables[0].Synonyms[0])
	assert.Equal(t, AggregationSum, orig.Tables[0].Measures[0].DefaultAggregation)
	assert.Equal(t, "open orders", orig.VerifiedQueries[0].Name)
}

func TestEqualIgnoringVerifiedQueries(t *testing.T) {
	a := sampleModel()
	b := sampleModel()
	require.True(t, a.EqualIgnoringVerifiedQueries(b))

	// Verified queries never participate in the comparison.
	b.VerifiedQueries = nil
	assert.True(t, a.EqualIgnoringVerifiedQueries(b))
	b.VerifiedQueries = []VerifiedQuery{{Name: "other"}}
	assert.True(t, a.EqualIgnoringVerifiedQueries(b))
}

func TestEqualDetectsFieldMutations(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*SemanticModel)
	}{
		{"model name", func(m *SemanticModel) { m.Name = "x" }},
		{"model description", func(m *SemanticModel) { m.Description = "x" }},
		{"table name", func(m *SemanticModel) { m.Tables[0].Name = "x" }},
		{"table description", func(m *SemanticModel) { m.Tables[0].Description = "x" }},
		{"base table", func(m *SemanticModel) { m.Tables[0].BaseTable.Schema = "x" }},
		{"table synonyms", func(m *SemanticModel) { m.Tables[0].Synonyms = append(m.Tables[0].Synonyms, "x") }},
		{"dimension expr", func(m *SemanticModel) { m.Tables[0].Dimensions[0].Expr = "x" }},
		{"dimension unique", func(m *SemanticModel) { m.Tables[0].Dimensions[0].Unique = true }},
		{"dimension sample values", func(m *SemanticModel) { m.Tables[0].Dimensions[0].SampleValues[0] = "x" }},
		{"time dimension data type", func(m *SemanticModel) { m.Tables[0].TimeDimensions[0].DataType = "x" }},
		{"measure aggregation", func(m *SemanticModel) { m.Tables[0].Measures[0].DefaultAggregation = AggregationMax }},
		{"deleted dimension", func(m *SemanticModel) { m.Tables[0].DeleteDimension(0) }},
		{"deleted table", func(m *SemanticModel) { m.DeleteTable(0) }},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			a := sampleModel()
			b := sampleModel()
			tt.mutate(b)
			assert.False(t, a.EqualIgnoringVerifiedQueries(b))
		})
	}
}

func TestEqualTreatsNilAndEmptyAlike(t *testing.T) {
	a := &SemanticModel{Name: "m", Tables: []Table{{Name: "t", Synonyms: nil}}}
	b := &SemanticModel{Name: "m", Tables: []Table{{Name: "t", Synonyms: []string{}}}}
	assert.True(t, a.EqualIgnoringVerifiedQueries(b))
}

func TestAggregationTypeIsValid(t *testing.T) {
	assert.True(t, AggregationUnknown.IsValid())
	for _, agg := range AggregationTypes() {
		assert.True(t, agg.IsValid(), string(agg))
	}
	assert.False(t, AggregationType("mode").IsValid())
}
