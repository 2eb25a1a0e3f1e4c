// Package publisher serializes the session's model and writes it to the
// warehouse stage, enforcing the validate-before-publish policy: a model
// that diverged from its last validated snapshot is re-validated (and
// re-snapshotted) before any named artifact is written.
package publisher

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/modelsmith-ai/modelsmith/pkg/adapters/warehouse"
	"github.com/modelsmith-ai/modelsmith/pkg/apperrors"
	"github.com/modelsmith-ai/modelsmith/pkg/session"
	"github.com/modelsmith-ai/modelsmith/pkg/validator"
)

// artifactSuffix is appended to every artifact name on the stage.
const artifactSuffix = ".yaml"

// Publisher writes semantic model artifacts to the stage.
type Publisher interface {
	// ValidateAndStage validates the live model and, on success, writes
	// it under the session's transient artifact name and snapshots it.
	// The validate-then-preview flow.
	ValidateAndStage(ctx context.Context, sess *session.Session) error

	// PublishNamed writes the live model under artifactName, first
	// re-running ValidateAndStage if the model diverged from its last
	// validated snapshot. A divergent model that fails validation is
	// never published.
	PublishNamed(ctx context.Context, sess *session.Session, artifactName string) error
}

type publisher struct {
	store     warehouse.StageStore
	stage     warehouse.StageRef
	validator validator.Validator
	logger    *zap.Logger
}

// New creates a publisher writing to the given stage.
func New(store warehouse.StageStore, stage warehouse.StageRef, v validator.Validator, logger *zap.Logger) Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &publisher{
		store:     store,
		stage:     stage,
		validator: v,
		logger:    logger.Named("publisher"),
	}
}

var _ Publisher = (*publisher)(nil)

func (p *publisher) ValidateAndStage(ctx context.Context, sess *session.Session) error {
	text, err := sess.Export()
	if err != nil {
		return err
	}
	if err := p.validator.Validate(ctx, text); err != nil {
		return err
	}
	if err := p.write(ctx, sess, sess.TempArtifactName(), text); err != nil {
		return err
	}
	sess.Snapshot()
	return nil
}

func (p *publisher) PublishNamed(ctx context.Context, sess *session.Session, artifactName string) error {
	artifactName = strings.TrimSpace(artifactName)
	if artifactName == "" {
		return fmt.Errorf("%w: artifact name is empty", apperrors.ErrUpload)
	}

	if sess.HasDiverged() {
		p.logger.Info("Model diverged since last validation, re-validating before publish")
		if err := p.ValidateAndStage(ctx, sess); err != nil {
			return err
		}
	}

	text, err := sess.Export()
	if err != nil {
		return err
	}
	return p.write(ctx, sess, artifactName, text)
}

// write stores one artifact, then cleans up the transient artifact when
// publishing under any other name. Cleanup failure is logged and
// discarded here and nowhere else; a publish never fails because its
// cleanup did.
func (p *publisher) write(ctx context.Context, sess *session.Session, artifactName, text string) error {
	name := artifactName + artifactSuffix
	if err := p.store.Write(ctx, p.stage, name, []byte(text)); err != nil {
		p.logger.Error("Stage write failed",
			zap.String("artifact", name),
			zap.Error(err))
		return fmt.Errorf("%w: write %s: %v", apperrors.ErrUpload, name, err)
	}
	p.logger.Info("Published semantic model artifact",
		zap.String("stage", p.stage.Name),
		zap.String("artifact", name))

	if artifactName != sess.TempArtifactName() {
		tempName := sess.TempArtifactName() + artifactSuffix
		if err := p.store.Delete(ctx, p.stage, tempName); err != nil {
			p.logger.Warn("Transient artifact cleanup failed",
				zap.String("artifact", tempName),
				zap.Error(err))
		}
	}
	return nil
}
