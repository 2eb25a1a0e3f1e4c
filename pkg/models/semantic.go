package models

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// AggregationType is the default aggregation applied to a measure.
// The zero value means "not set"; it is omitted from the YAML form and
// an absent or empty field decodes back to it.
type AggregationType string

const (
	AggregationUnknown       AggregationType = ""
	AggregationSum           AggregationType = "sum"
	AggregationAvg           AggregationType = "avg"
	AggregationMin           AggregationType = "min"
	AggregationMax           AggregationType = "max"
	AggregationCount         AggregationType = "count"
	AggregationCountDistinct AggregationType = "count_distinct"
	AggregationMedian        AggregationType = "median"
)

// AggregationTypes lists every aggregation a measure may declare,
// excluding the unset sentinel.
func AggregationTypes() []AggregationType {
	return []AggregationType{
		AggregationSum,
		AggregationAvg,
		AggregationMin,
		AggregationMax,
		AggregationCount,
		AggregationCountDistinct,
		AggregationMedian,
	}
}

// IsValid reports whether a is a known aggregation or the unset sentinel.
func (a AggregationType) IsValid() bool {
	if a == AggregationUnknown {
		return true
	}
	for _, known := range AggregationTypes() {
		if a == known {
			return true
		}
	}
	return false
}

// UnmarshalYAML decodes an aggregation, mapping an empty field to the
// unset sentinel and rejecting unrecognized values.
func (a *AggregationType) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	agg := AggregationType(strings.ToLower(strings.TrimSpace(raw)))
	if !agg.IsValid() {
		return fmt.Errorf("unrecognized default_aggregation %q", raw)
	}
	*a = agg
	return nil
}

// SemanticModel is the root of the structured document: a named model
// owning an ordered sequence of logical tables plus the verified queries
// confirmed against it. The model "exists" once it has a name.
type SemanticModel struct {
	Name            string          `yaml:"name"`
	Description     string          `yaml:"description,omitempty"`
	Tables          []Table         `yaml:"tables,omitempty"`
	VerifiedQueries []VerifiedQuery `yaml:"verified_queries,omitempty"`
}

// Exists reports whether the model has been named yet. The UI shell uses
// this to decide between the "create" and "edit" surfaces.
func (m *SemanticModel) Exists() bool {
	return strings.TrimSpace(m.Name) != ""
}

// BaseTable is the fully-qualified physical table a logical table maps to.
type BaseTable struct {
	Database string `yaml:"database"`
	Schema   string `yaml:"schema"`
	Table    string `yaml:"table"`
}

// FQN returns the database.schema.table form of the reference.
func (b BaseTable) FQN() string {
	return b.Database + "." + b.Schema + "." + b.Table
}

// Table is a logical table: a physical base table plus the dimensions,
// time dimensions, and measures exposed on top of it.
type Table struct {
	Name           string          `yaml:"name"`
	Synonyms       []string        `yaml:"synonyms,omitempty"`
	Description    string          `yaml:"description,omitempty"`
	BaseTable      BaseTable       `yaml:"base_table"`
	Dimensions     []Dimension     `yaml:"dimensions,omitempty"`
	TimeDimensions []TimeDimension `yaml:"time_dimensions,omitempty"`
	Measures       []Measure       `yaml:"measures,omitempty"`
}

// Dimension is a categorical column abstraction.
type Dimension struct {
	Name         string   `yaml:"name"`
	Synonyms     []string `yaml:"synonyms,omitempty"`
	Description  string   `yaml:"description,omitempty"`
	Expr         string   `yaml:"expr"`
	DataType     string   `yaml:"data_type,omitempty"`
	Unique       bool     `yaml:"unique,omitempty"`
	SampleValues []string `yaml:"sample_values,omitempty"`
}

// TimeDimension is a temporal column abstraction. Same shape as a
// dimension; kept as its own type so collections stay distinct.
type TimeDimension struct {
	Name         string   `yaml:"name"`
	Synonyms     []string `yaml:"synonyms,omitempty"`
	Description  string   `yaml:"description,omitempty"`
	Expr         string   `yaml:"expr"`
	DataType     string   `yaml:"data_type,omitempty"`
	Unique       bool     `yaml:"unique,omitempty"`
	SampleValues []string `yaml:"sample_values,omitempty"`
}

// Measure is a numeric-aggregatable column abstraction.
type Measure struct {
	Name               string          `yaml:"name"`
	Synonyms           []string        `yaml:"synonyms,omitempty"`
	Description        string          `yaml:"description,omitempty"`
	Expr               string          `yaml:"expr"`
	DataType           string          `yaml:"data_type,omitempty"`
	DefaultAggregation AggregationType `yaml:"default_aggregation,omitempty"`
	SampleValues       []string        `yaml:"sample_values,omitempty"`
}

// VerifiedQuery is a previously confirmed natural-language-to-SQL pairing.
// Tracked on the model but excluded from structural validation and from
// change tracking.
type VerifiedQuery struct {
	Name       string `yaml:"name"`
	Question   string `yaml:"question,omitempty"`
	SQL        string `yaml:"sql,omitempty"`
	VerifiedAt int64  `yaml:"verified_at,omitempty"`
	VerifiedBy string `yaml:"verified_by,omitempty"`
}
