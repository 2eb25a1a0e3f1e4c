package inference

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelsmith-ai/modelsmith/pkg/adapters/warehouse"
	"github.com/modelsmith-ai/modelsmith/pkg/apperrors"
	"github.com/modelsmith-ai/modelsmith/pkg/models"
)

// fakeDiscoverer serves canned metadata keyed by table name.
type fakeDiscoverer struct {
	columns   map[string][]warehouse.Column
	values    map[string][]string
	valueErr  error
	columnErr error
}

func (f *fakeDiscoverer) DiscoverColumns(_ context.Context, ref warehouse.TableRef) ([]warehouse.Column, error) {
	if f.columnErr != nil {
		return nil, f.columnErr
	}
	return f.columns[ref.Table], nil
}

func (f *fakeDiscoverer) GetDistinctValues(_ context.Context, ref warehouse.TableRef, column string, limit int) ([]string, error) {
	if f.valueErr != nil {
		return nil, f.valueErr
	}
	values := f.values[fmt.Sprintf("%s.%s", ref.Table, column)]
	if len(values) > limit {
		values = values[:limit]
	}
	return values, nil
}

func (f *fakeDiscoverer) Ping(context.Context) error { return nil }

func (f *fakeDiscoverer) Close() error { return nil }

func ordersRef() warehouse.TableRef {
	return warehouse.TableRef{Database: "ANALYTICS", Schema: "PUBLIC", Table: "ORDERS"}
}

func ordersDiscoverer() *fakeDiscoverer {
	return &fakeDiscoverer{
		columns: map[string][]warehouse.Column{
			"ORDERS": {
				{Name: "id", DataType: "NUMBER(38,0)", IsPrimary: true},
				{Name: "status", DataType: "TEXT"},
				{Name: "ordered_at", DataType: "TIMESTAMP_NTZ"},
				{Name: "total", DataType: "DECIMAL(10,2)"},
			},
		},
		values: map[string][]string{
			"ORDERS.status": {"closed", "open", "pending"},
		},
	}
}

func TestInferTableClassifiesColumns(t *testing.T) {
	svc := NewService(ordersDiscoverer(), 0, nil)

	table, err := svc.InferTable(context.Background(), ordersRef())
	require.NoError(t, err)

	assert.Equal(t, "orders", table.Name)
	assert.Equal(t, "ANALYTICS.PUBLIC.ORDERS", table.BaseTable.FQN())

	require.Len(t, table.Dimensions, 1)
	assert.Equal(t, "status", table.Dimensions[0].Name)
	assert.Equal(t, []string{"closed", "open", "pending"}, table.Dimensions[0].SampleValues)

	require.Len(t, table.TimeDimensions, 1)
	assert.Equal(t, "ordered_at", table.TimeDimensions[0].Name)

	require.Len(t, table.Measures, 2)
	assert.Equal(t, "id", table.Measures[0].Name)
	assert.Equal(t, "total", table.Measures[1].Name)
	// Aggregation is never guessed; the author chooses it.
	assert.Equal(t, models.AggregationUnknown, table.Measures[0].DefaultAggregation)
}

func TestInferTableSampleFailureIsNotFatal(t *testing.T) {
	disc := ordersDiscoverer()
	disc.valueErr = errors.New("permission denied")
	svc := NewService(disc, 5, nil)

	table, err := svc.InferTable(context.Background(), ordersRef())
	require.NoError(t, err)
	assert.Empty(t, table.Dimensions[0].SampleValues)
}

func TestInferTableErrors(t *testing.T) {
	t.Run("discovery failure", func(t *testing.T) {
		disc := ordersDiscoverer()
		disc.columnErr = errors.New("connection reset")
		svc := NewService(disc, 0, nil)

		_, err := svc.InferTable(context.Background(), ordersRef())
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInference))
	})

	t.Run("unknown table", func(t *testing.T) {
		svc := NewService(ordersDiscoverer(), 0, nil)
		_, err := svc.InferTable(context.Background(), warehouse.TableRef{
			Database: "ANALYTICS", Schema: "PUBLIC", Table: "MISSING",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInference))
	})
}

func TestInferTablesPreservesOrder(t *testing.T) {
	disc := ordersDiscoverer()
	disc.columns["CUSTOMERS"] = []warehouse.Column{
		{Name: "name", DataType: "VARCHAR(64)"},
	}
	svc := NewService(disc, 0, nil)

	tables, err := svc.InferTables(context.Background(), []warehouse.TableRef{
		{Database: "ANALYTICS", Schema: "PUBLIC", Table: "CUSTOMERS"},
		ordersRef(),
	})
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "customers", tables[0].Name)
	assert.Equal(t, "orders", tables[1].Name)
}

func TestClassifyDataType(t *testing.T) {
	tests := []struct {
		dataType string
		want     columnKind
	}{
		{"NUMBER(38,0)", kindMeasure},
		{"bigint", kindMeasure},
		{"DOUBLE PRECISION", kindMeasure},
		{"money", kindMeasure},
		{"DATE", kindTimeDimension},
		{"TIMESTAMP_NTZ", kindTimeDimension},
		{"datetime2", kindTimeDimension},
		{"timestamp with time zone", kindTimeDimension},
		{"integer", kindMeasure},
		{"TEXT", kindDimension},
		{"VARCHAR(255)", kindDimension},
		{"BOOLEAN", kindDimension},
		{"uuid", kindDimension},
		// Whole-token matching: these contain numeric fragments but are
		// not numeric types.
		{"POINT", kindDimension},
		{"interval", kindDimension},
		{"MULTIPOINT", kindDimension},
	}

	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			if got := classifyDataType(tt.dataType); got != tt.want {
				t.Errorf("classifyDataType(%q) = %v, want %v", tt.dataType, got, tt.want)
			}
		})
	}
}

func TestSynonymsFor(t *testing.T) {
	assert.Equal(t, []string{"order"}, synonymsFor("orders"))
	assert.Equal(t, []string{"statuses"}, synonymsFor("status"))
	// Already both singular and plural forms of itself.
	assert.Empty(t, synonymsFor("fish"))
}
