// Package session holds the per-session authoring state: the live
// semantic model, the validation flag, and the last-validated snapshot
// that drives the re-validate-before-publish policy. All authoring state
// lives on an explicit Session passed to every operation.
package session

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/modelsmith-ai/modelsmith/pkg/codec"
	"github.com/modelsmith-ai/modelsmith/pkg/models"
)

const tempArtifactPrefix = "modelsmith_tmp_model"

// Session is a single logical authoring session over one live model.
// Operations are synchronous and invoked sequentially from one
// interaction thread; the session does no internal locking.
type Session struct {
	// Model is the live document. Editors mutate it in place through
	// live references.
	Model *models.SemanticModel

	// Validated reports whether the model has ever passed validation.
	Validated bool

	// lastValidated is a deep, independent snapshot taken on successful
	// validation. Its VerifiedQueries are always cleared; they are
	// tracked separately from structural validation.
	lastValidated *models.SemanticModel

	tempArtifact string
	logger       *zap.Logger
}

// New creates an empty session. The transient artifact name is fixed for
// the session's lifetime so repeated preview uploads overwrite the same
// remote object.
func New(logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		Model:         &models.SemanticModel{},
		lastValidated: &models.SemanticModel{},
		tempArtifact:  fmt.Sprintf("%s_%s", tempArtifactPrefix, time.Now().Format("20060102_150405")),
		logger:        logger.Named("session"),
	}
}

// TempArtifactName is the well-known transient artifact name used by
// validate-then-preview flows.
func (s *Session) TempArtifactName() string {
	return s.tempArtifact
}

// Snapshot retains a deep copy of the live model as the last-validated
// version, clearing verified queries in the snapshot only. Callers invoke
// it immediately after successful validation.
func (s *Session) Snapshot() {
	snap := s.Model.Clone()
	snap.VerifiedQueries = nil
	s.lastValidated = snap
	s.Validated = true
	s.logger.Debug("Snapshotted last-validated model",
		zap.String("model", snap.Name),
		zap.Int("tables", len(snap.Tables)))
}

// HasDiverged reports whether the live model differs from the
// last-validated snapshot in any field other than verified queries.
func (s *Session) HasDiverged() bool {
	return !s.Model.EqualIgnoringVerifiedQueries(s.lastValidated)
}

// Import replaces the live model with one decoded from its YAML form.
// The last-validated snapshot is untouched; an imported model counts as
// divergent until it passes validation again.
func (s *Session) Import(text string) error {
	m, err := codec.FromYAML(text)
	if err != nil {
		return err
	}
	s.Model = m
	s.Validated = false
	s.logger.Info("Imported semantic model",
		zap.String("model", m.Name),
		zap.Int("tables", len(m.Tables)))
	return nil
}

// Export serializes the live model to its YAML form.
func (s *Session) Export() (string, error) {
	return codec.ToYAML(s.Model)
}
