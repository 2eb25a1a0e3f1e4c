// Package inference builds semantic model fragments from physical
// schema metadata: every column of a base table becomes a dimension,
// time dimension, or measure according to its data type.
package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/modelsmith-ai/modelsmith/pkg/adapters/warehouse"
	"github.com/modelsmith-ai/modelsmith/pkg/apperrors"
	"github.com/modelsmith-ai/modelsmith/pkg/models"
)

// DefaultSampleValueLimit caps how many distinct values are sampled per
// dimension column.
const DefaultSampleValueLimit = 10

// Service infers semantic table definitions from physical tables.
type Service interface {
	// InferTable builds a Table for one physical table. The returned
	// table carries only inferred collections; name, description, and
	// synonyms stay with the caller.
	InferTable(ctx context.Context, ref warehouse.TableRef) (*models.Table, error)

	// InferTables builds one Table per reference, in input order.
	InferTables(ctx context.Context, refs []warehouse.TableRef) ([]models.Table, error)
}

type service struct {
	discoverer  warehouse.SchemaDiscoverer
	sampleLimit int
	logger      *zap.Logger
}

// NewService creates an inference service. A sampleLimit <= 0 falls back
// to DefaultSampleValueLimit.
func NewService(discoverer warehouse.SchemaDiscoverer, sampleLimit int, logger *zap.Logger) Service {
	if sampleLimit <= 0 {
		sampleLimit = DefaultSampleValueLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		discoverer:  discoverer,
		sampleLimit: sampleLimit,
		logger:      logger.Named("inference"),
	}
}

var _ Service = (*service)(nil)

func (s *service) InferTable(ctx context.Context, ref warehouse.TableRef) (*models.Table, error) {
	columns, err := s.discoverer.DiscoverColumns(ctx, ref)
	if err != nil {
		s.logger.Error("Column discovery failed",
			zap.String("table", ref.FQN()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: discover columns for %s: %v", apperrors.ErrInference, ref.FQN(), err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: physical table %s has no columns", apperrors.ErrInference, ref.FQN())
	}

	table := &models.Table{
		Name:      strings.ToLower(ref.Table),
		BaseTable: models.BaseTable{Database: ref.Database, Schema: ref.Schema, Table: ref.Table},
	}

	for _, col := range columns {
		switch classifyDataType(col.DataType) {
		case kindMeasure:
			table.Measures = append(table.Measures, models.Measure{
				Name:     col.Name,
				Synonyms: synonymsFor(col.Name),
				Expr:     col.Name,
				DataType: col.DataType,
			})
		case kindTimeDimension:
			table.TimeDimensions = append(table.TimeDimensions, models.TimeDimension{
				Name:     col.Name,
				Synonyms: synonymsFor(col.Name),
				Expr:     col.Name,
				DataType: col.DataType,
				Unique:   col.IsPrimary || col.IsUnique,
			})
		default:
			dim := models.Dimension{
				Name:     col.Name,
				Synonyms: synonymsFor(col.Name),
				Expr:     col.Name,
				DataType: col.DataType,
				Unique:   col.IsPrimary || col.IsUnique,
			}
			values, err := s.discoverer.GetDistinctValues(ctx, ref, col.Name, s.sampleLimit)
			if err != nil {
				// Sampling is an enrichment; a column we cannot sample
				// still makes a usable dimension.
				s.logger.Warn("Sample value lookup failed",
					zap.String("table", ref.FQN()),
					zap.String("column", col.Name),
					zap.Error(err))
			} else {
				dim.SampleValues = values
			}
			table.Dimensions = append(table.Dimensions, dim)
		}
	}

	s.logger.Info("Inferred semantic table",
		zap.String("table", ref.FQN()),
		zap.Int("dimensions", len(table.Dimensions)),
		zap.Int("time_dimensions", len(table.TimeDimensions)),
		zap.Int("measures", len(table.Measures)))
	return table, nil
}

func (s *service) InferTables(ctx context.Context, refs []warehouse.TableRef) ([]models.Table, error) {
	tables := make([]models.Table, 0, len(refs))
	for _, ref := range refs {
		table, err := s.InferTable(ctx, ref)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *table)
	}
	return tables, nil
}

type columnKind int

const (
	kindDimension columnKind = iota
	kindTimeDimension
	kindMeasure
)

// numericTypes and temporalTypes match whole type tokens, covering the
// spellings used by the supported warehouses. Matching on fragments would
// misfile POINT and INTERVAL as numeric.
var (
	numericTypes = map[string]bool{
		"INT": true, "INTEGER": true, "BIGINT": true, "SMALLINT": true,
		"TINYINT": true, "INT2": true, "INT4": true, "INT8": true,
		"NUMBER": true, "NUMERIC": true, "DECIMAL": true, "DEC": true,
		"FLOAT": true, "FLOAT4": true, "FLOAT8": true,
		"DOUBLE": true, "REAL": true, "MONEY": true, "SMALLMONEY": true,
	}
	temporalTypes = map[string]bool{
		"DATE": true, "TIME": true, "TIMETZ": true, "SMALLDATETIME": true,
	}
)

func classifyDataType(dataType string) columnKind {
	normalized := strings.ToUpper(strings.TrimSpace(dataType))
	// Strip precision/scale suffixes like NUMBER(38,0).
	if idx := strings.IndexByte(normalized, '('); idx >= 0 {
		normalized = normalized[:idx]
	}
	// Keep only the leading token of multi-word types such as
	// DOUBLE PRECISION and TIMESTAMP WITH TIME ZONE.
	if fields := strings.Fields(normalized); len(fields) > 0 {
		normalized = fields[0]
	} else {
		return kindDimension
	}

	// TIMESTAMP_NTZ, TIMESTAMPTZ, DATETIME2, DATETIMEOFFSET.
	if strings.HasPrefix(normalized, "TIMESTAMP") || strings.HasPrefix(normalized, "DATETIME") {
		return kindTimeDimension
	}
	if temporalTypes[normalized] {
		return kindTimeDimension
	}
	if numericTypes[normalized] {
		return kindMeasure
	}
	return kindDimension
}

// synonymsFor derives the obvious lookup aliases for a column name: its
// singular and plural forms, when they differ from the name itself.
func synonymsFor(name string) []string {
	var synonyms []string
	lower := strings.ToLower(name)
	if singular := inflection.Singular(lower); singular != lower {
		synonyms = append(synonyms, singular)
	}
	if plural := inflection.Plural(lower); plural != lower {
		synonyms = append(synonyms, plural)
	}
	return synonyms
}
