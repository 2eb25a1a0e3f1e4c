// Package codec converts semantic models to and from their YAML
// interchange form. The YAML form is the hand-editable contract shared
// with the validation and publishing collaborators, so encoding is
// deterministic: field order follows the struct definitions and entity
// order is preserved within every collection.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/modelsmith-ai/modelsmith/pkg/apperrors"
	"github.com/modelsmith-ai/modelsmith/pkg/models"
)

const yamlIndent = 2

// ToYAML serializes the model to its YAML interchange form.
func ToYAML(m *models.SemanticModel) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(yamlIndent)
	if err := enc.Encode(m); err != nil {
		return "", fmt.Errorf("encode semantic model: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("finalize semantic model document: %w", err)
	}
	return buf.String(), nil
}

// FromYAML reconstructs a semantic model from its YAML form. Unknown
// keys are rejected so typos in hand-edited documents fail loudly
// instead of silently dropping fields. All failures wrap ErrParse.
func FromYAML(text string) (*models.SemanticModel, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))
	dec.KnownFields(true)

	var m models.SemanticModel
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", apperrors.ErrParse)
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrParse, err)
	}
	return &m, nil
}
