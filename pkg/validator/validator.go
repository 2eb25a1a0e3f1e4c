// Package validator checks a semantic model document before it may be
// staged: structural consistency of the document itself, screening of
// its embedded SQL fragments, and agreement with the physical schema
// reported by the warehouse.
package validator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/modelsmith-ai/modelsmith/pkg/adapters/warehouse"
	"github.com/modelsmith-ai/modelsmith/pkg/apperrors"
	"github.com/modelsmith-ai/modelsmith/pkg/codec"
	"github.com/modelsmith-ai/modelsmith/pkg/models"
	modelsql "github.com/modelsmith-ai/modelsmith/pkg/sql"
)

// Validator accepts or rejects a semantic model document. It keeps no
// state across calls and never mutates its input; on success the caller
// snapshots the live model.
type Validator interface {
	Validate(ctx context.Context, yamlText string) error
}

type validator struct {
	discoverer warehouse.SchemaDiscoverer
	logger     *zap.Logger
}

// New creates a validator backed by the given metadata collaborator.
func New(discoverer warehouse.SchemaDiscoverer, logger *zap.Logger) Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &validator{
		discoverer: discoverer,
		logger:     logger.Named("validator"),
	}
}

var _ Validator = (*validator)(nil)

func (v *validator) Validate(ctx context.Context, yamlText string) error {
	m, err := codec.FromYAML(yamlText)
	if err != nil {
		return err
	}

	if err := checkStructure(m); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	for i := range m.Tables {
		if err := v.checkPhysical(ctx, &m.Tables[i]); err != nil {
			return err
		}
	}

	v.logger.Info("Validated semantic model",
		zap.String("model", m.Name),
		zap.Int("tables", len(m.Tables)))
	return nil
}

// checkStructure verifies the document is internally consistent before
// any warehouse round trip.
func checkStructure(m *models.SemanticModel) error {
	if !m.Exists() {
		return fmt.Errorf("model has no name")
	}

	seen := make(map[string]struct{}, len(m.Tables))
	for i := range m.Tables {
		t := &m.Tables[i]
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("table %d has no name", i)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("duplicate table name %q", t.Name)
		}
		seen[t.Name] = struct{}{}

		if t.BaseTable.Database == "" || t.BaseTable.Schema == "" || t.BaseTable.Table == "" {
			return fmt.Errorf("table %q has an incomplete base_table reference", t.Name)
		}

		if err := checkTableEntities(t); err != nil {
			return err
		}
	}
	return nil
}

func checkTableEntities(t *models.Table) error {
	for _, d := range t.Dimensions {
		if err := checkEntity(t.Name, "dimension", d.Name, d.Expr, d.SampleValues); err != nil {
			return err
		}
	}
	for _, td := range t.TimeDimensions {
		if err := checkEntity(t.Name, "time dimension", td.Name, td.Expr, td.SampleValues); err != nil {
			return err
		}
	}
	for _, ms := range t.Measures {
		if err := checkEntity(t.Name, "measure", ms.Name, ms.Expr, ms.SampleValues); err != nil {
			return err
		}
		if !ms.DefaultAggregation.IsValid() {
			return fmt.Errorf("measure %q in table %q has unrecognized default_aggregation %q",
				ms.Name, t.Name, ms.DefaultAggregation)
		}
	}
	return nil
}

func checkEntity(tableName, kind, name, expr string, sampleValues []string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("table %q has a %s without a name", tableName, kind)
	}
	if err := modelsql.CheckExpression(expr); err != nil {
		return fmt.Errorf("%s %q in table %q: %v", kind, name, tableName, err)
	}
	if flagged := modelsql.CheckValuesForInjection("sample_values", sampleValues); len(flagged) > 0 {
		return fmt.Errorf("%s %q in table %q: sample value %q matches a SQL injection pattern (%s)",
			kind, name, tableName, flagged[0].Value, flagged[0].Fingerprint)
	}
	return nil
}

// checkPhysical confirms the base table exists and that every
// bare-column expression resolves to a physical column. Computed
// expressions are left to the warehouse to reject at query time.
func (v *validator) checkPhysical(ctx context.Context, t *models.Table) error {
	ref := warehouse.TableRef{
		Database: t.BaseTable.Database,
		Schema:   t.BaseTable.Schema,
		Table:    t.BaseTable.Table,
	}

	columns, err := v.discoverer.DiscoverColumns(ctx, ref)
	if err != nil {
		return fmt.Errorf("%w: metadata lookup for %s: %v", apperrors.ErrValidation, ref.FQN(), err)
	}
	if len(columns) == 0 {
		return fmt.Errorf("%w: physical table %s not found", apperrors.ErrValidation, ref.FQN())
	}

	known := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		known[strings.ToLower(col.Name)] = struct{}{}
	}

	checkExpr := func(kind, name, expr string) error {
		expr = strings.TrimSpace(expr)
		if !modelsql.IsBareIdentifier(expr) {
			return nil
		}
		if _, ok := known[strings.ToLower(expr)]; !ok {
			return fmt.Errorf("%w: %s %q in table %q references unknown column %q of %s",
				apperrors.ErrValidation, kind, name, t.Name, expr, ref.FQN())
		}
		return nil
	}

	for _, d := range t.Dimensions {
		if err := checkExpr("dimension", d.Name, d.Expr); err != nil {
			return err
		}
	}
	for _, td := range t.TimeDimensions {
		if err := checkExpr("time dimension", td.Name, td.Expr); err != nil {
			return err
		}
	}
	for _, ms := range t.Measures {
		if err := checkExpr("measure", ms.Name, ms.Expr); err != nil {
			return err
		}
	}
	return nil
}
