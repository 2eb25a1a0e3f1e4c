package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/modelsmith-ai/modelsmith/pkg/adapters/warehouse"
	"github.com/modelsmith-ai/modelsmith/pkg/apperrors"
	"github.com/modelsmith-ai/modelsmith/pkg/inference"
	"github.com/modelsmith-ai/modelsmith/pkg/publisher"
	"github.com/modelsmith-ai/modelsmith/pkg/session"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// ModelResponse for GET /api/model
type ModelResponse struct {
	YAML      string `json:"yaml"`
	Validated bool   `json:"validated"`
	Diverged  bool   `json:"diverged"`
}

// ImportModelRequest for POST /api/model/import
type ImportModelRequest struct {
	YAML string `json:"yaml"`
}

// AddTableRequest for POST /api/model/tables
type AddTableRequest struct {
	Database string `json:"database"`
	Schema   string `json:"schema"`
	Table    string `json:"table"`
}

// ReplaceSynonymsRequest for PUT /api/model/tables/{name}/synonyms
type ReplaceSynonymsRequest struct {
	Synonyms []string `json:"synonyms"`
}

// PublishRequest for POST /api/model/publish
type PublishRequest struct {
	Name string `json:"name"`
}

// ============================================================================
// Handler
// ============================================================================

// ModelHandler exposes the authoring session over HTTP. The session
// itself is single-threaded; mu serializes the request goroutines so the
// session only ever sees one operation at a time.
type ModelHandler struct {
	mu        sync.Mutex
	sess      *session.Session
	inference inference.Service
	publisher publisher.Publisher
	logger    *zap.Logger
}

// NewModelHandler creates a new model handler bound to one session.
func NewModelHandler(
	sess *session.Session,
	inf inference.Service,
	pub publisher.Publisher,
	logger *zap.Logger,
) *ModelHandler {
	return &ModelHandler{
		sess:      sess,
		inference: inf,
		publisher: pub,
		logger:    logger,
	}
}

// RegisterRoutes registers the model handler's routes on the given mux.
func (h *ModelHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/model", h.Get)
	mux.HandleFunc("POST /api/model/import", h.Import)
	mux.HandleFunc("POST /api/model/tables", h.AddTable)
	mux.HandleFunc("DELETE /api/model/tables/{idx}", h.DeleteTable)
	mux.HandleFunc("PUT /api/model/tables/{name}/synonyms", h.ReplaceSynonyms)
	mux.HandleFunc("POST /api/model/validate", h.Validate)
	mux.HandleFunc("POST /api/model/publish", h.Publish)
}

// Get handles GET /api/model
func (h *ModelHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	text, err := h.sess.Export()
	if err != nil {
		h.logger.Error("Failed to export model", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "export_failed", err.Error())
		return
	}

	response := ModelResponse{
		YAML:      text,
		Validated: h.sess.Validated,
		Diverged:  h.sess.HasDiverged(),
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Import handles POST /api/model/import
func (h *ModelHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.sess.Import(req.YAML); err != nil {
		if errors.Is(err, apperrors.ErrParse) {
			h.writeError(w, http.StatusBadRequest, "parse_failure", err.Error())
			return
		}
		h.logger.Error("Failed to import model", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "import_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "model imported"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AddTable handles POST /api/model/tables
// Infers the logical table from the physical schema, then adds it.
func (h *ModelHandler) AddTable(w http.ResponseWriter, r *http.Request) {
	var req AddTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Database == "" || req.Schema == "" || req.Table == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "database, schema and table are required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ref := warehouse.TableRef{Database: req.Database, Schema: req.Schema, Table: req.Table}
	table, err := h.inference.InferTable(r.Context(), ref)
	if err != nil {
		h.logger.Error("Table inference failed",
			zap.String("table", ref.FQN()),
			zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "inference_failure", err.Error())
		return
	}

	if err := h.sess.Model.AddTable(*table); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateTable) {
			h.writeError(w, http.StatusConflict, "duplicate_table", err.Error())
			return
		}
		h.logger.Error("Failed to add table", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "add_table_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: table}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DeleteTable handles DELETE /api/model/tables/{idx}
// Deleting an out-of-range index is a no-op, matching the editing model.
func (h *ModelHandler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "table index must be an integer")
		return
	}

	h.mu.Lock()
	h.sess.Model.DeleteTable(idx)
	h.mu.Unlock()

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ReplaceSynonyms handles PUT /api/model/tables/{name}/synonyms
func (h *ModelHandler) ReplaceSynonyms(w http.ResponseWriter, r *http.Request) {
	var req ReplaceSynonymsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	table := h.sess.Model.FindTable(r.PathValue("name"))
	if table == nil {
		h.writeError(w, http.StatusNotFound, "table_not_found", "no table with that name")
		return
	}

	table.ReplaceSynonyms(req.Synonyms)

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: table}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Validate handles POST /api/model/validate
// Runs the validate-then-preview flow: validation, transient staging,
// snapshot.
func (h *ModelHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.publisher.ValidateAndStage(r.Context(), h.sess); err != nil {
		h.respondPublishError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "model validated and staged"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Publish handles POST /api/model/publish
func (h *ModelHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.publisher.PublishNamed(r.Context(), h.sess, req.Name); err != nil {
		h.respondPublishError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "model published"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// respondPublishError maps the error taxonomy onto HTTP statuses.
func (h *ModelHandler) respondPublishError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrParse):
		h.writeError(w, http.StatusBadRequest, "parse_failure", err.Error())
	case errors.Is(err, apperrors.ErrValidation):
		h.writeError(w, http.StatusUnprocessableEntity, "validation_failure", err.Error())
	case errors.Is(err, apperrors.ErrUpload):
		h.logger.Error("Publish failed", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "upload_failure", err.Error())
	default:
		h.logger.Error("Publish failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "publish_failed", err.Error())
	}
}

func (h *ModelHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
