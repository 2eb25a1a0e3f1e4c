package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/modelsmith-ai/modelsmith/pkg/adapters/warehouse"
	"github.com/modelsmith-ai/modelsmith/pkg/apperrors"
	"github.com/modelsmith-ai/modelsmith/pkg/models"
	"github.com/modelsmith-ai/modelsmith/pkg/session"
)

type fakeInference struct {
	table *models.Table
	err   error
}

func (f *fakeInference) InferTable(_ context.Context, _ warehouse.TableRef) (*models.Table, error) {
	if f.err != nil {
		return nil, f.err
	}
	clone := *f.table
	return &clone, nil
}

func (f *fakeInference) InferTables(ctx context.Context, refs []warehouse.TableRef) ([]models.Table, error) {
	var out []models.Table
	for _, ref := range refs {
		t, err := f.InferTable(ctx, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

type fakePublisher struct {
	validateErr error
	publishErr  error
	staged      int
	published   []string
}

func (f *fakePublisher) ValidateAndStage(_ context.Context, sess *session.Session) error {
	if f.validateErr != nil {
		return f.validateErr
	}
	f.staged++
	sess.Snapshot()
	return nil
}

func (f *fakePublisher) PublishNamed(_ context.Context, _ *session.Session, name string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, name)
	return nil
}

func newHandler(t *testing.T, inf *fakeInference, pub *fakePublisher) (*ModelHandler, *session.Session, *http.ServeMux) {
	t.Helper()
	sess := session.New(nil)
	sess.Model.Name = "sales"
	h := NewModelHandler(sess, inf, pub, zap.NewNop())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h, sess, mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(buf))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)
	return rec
}

func ordersTable() *models.Table {
	return &models.Table{
		Name:      "orders",
		BaseTable: models.BaseTable{Database: "analytics", Schema: "public", Table: "ORDERS"},
		Dimensions: []models.Dimension{
			{Name: "status", Expr: "status", DataType: "TEXT"},
		},
	}
}

func TestModelHandler_Get(t *testing.T) {
	_, _, mux := newHandler(t, &fakeInference{table: ordersTable()}, &fakePublisher{})

	rec := doJSON(t, mux, http.MethodGet, "/api/model", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Contains(t, data["yaml"].(string), "name: sales")
	assert.Equal(t, false, data["validated"])
	assert.Equal(t, true, data["diverged"])
}

func TestModelHandler_ImportRoundTrip(t *testing.T) {
	_, sess, mux := newHandler(t, &fakeInference{table: ordersTable()}, &fakePublisher{})

	text, err := sess.Export()
	require.NoError(t, err)

	rec := doJSON(t, mux, http.MethodPost, "/api/model/import", ImportModelRequest{YAML: text})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sales", sess.Model.Name)
}

func TestModelHandler_ImportParseFailure(t *testing.T) {
	_, sess, mux := newHandler(t, &fakeInference{table: ordersTable()}, &fakePublisher{})

	rec := doJSON(t, mux, http.MethodPost, "/api/model/import", ImportModelRequest{YAML: "tables: {not: [valid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "parse_failure")
	assert.Equal(t, "sales", sess.Model.Name, "failed import must leave the model untouched")
}

func TestModelHandler_AddTable(t *testing.T) {
	_, sess, mux := newHandler(t, &fakeInference{table: ordersTable()}, &fakePublisher{})

	req := AddTableRequest{Database: "analytics", Schema: "public", Table: "ORDERS"}
	rec := doJSON(t, mux, http.MethodPost, "/api/model/tables", req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sess.Model.FindTable("orders"))

	// Adding the same table again conflicts.
	rec = doJSON(t, mux, http.MethodPost, "/api/model/tables", req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate_table")
}

func TestModelHandler_AddTableInferenceFailure(t *testing.T) {
	inf := &fakeInference{err: fmt.Errorf("%w: discover columns: connection refused", apperrors.ErrInference)}
	_, sess, mux := newHandler(t, inf, &fakePublisher{})

	rec := doJSON(t, mux, http.MethodPost, "/api/model/tables",
		AddTableRequest{Database: "analytics", Schema: "public", Table: "ORDERS"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "inference_failure")
	assert.Empty(t, sess.Model.Tables)
}

func TestModelHandler_AddTableMissingFields(t *testing.T) {
	_, _, mux := newHandler(t, &fakeInference{table: ordersTable()}, &fakePublisher{})

	rec := doJSON(t, mux, http.MethodPost, "/api/model/tables", AddTableRequest{Table: "ORDERS"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModelHandler_DeleteTable(t *testing.T) {
	_, sess, mux := newHandler(t, &fakeInference{table: ordersTable()}, &fakePublisher{})
	require.NoError(t, sess.Model.AddTable(*ordersTable()))

	// Out-of-range delete is a no-op, not an error.
	rec := doJSON(t, mux, http.MethodDelete, "/api/model/tables/5", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, sess.Model.Tables, 1)

	rec = doJSON(t, mux, http.MethodDelete, "/api/model/tables/0", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, sess.Model.Tables)

	rec = doJSON(t, mux, http.MethodDelete, "/api/model/tables/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModelHandler_ReplaceSynonyms(t *testing.T) {
	_, sess, mux := newHandler(t, &fakeInference{table: ordersTable()}, &fakePublisher{})
	require.NoError(t, sess.Model.AddTable(*ordersTable()))

	rec := doJSON(t, mux, http.MethodPut, "/api/model/tables/orders/synonyms",
		ReplaceSynonymsRequest{Synonyms: []string{"purchases", "", "sales orders"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"purchases", "sales orders"}, sess.Model.FindTable("orders").Synonyms)

	rec = doJSON(t, mux, http.MethodPut, "/api/model/tables/missing/synonyms",
		ReplaceSynonymsRequest{Synonyms: []string{"x"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModelHandler_Validate(t *testing.T) {
	pub := &fakePublisher{}
	_, sess, mux := newHandler(t, &fakeInference{table: ordersTable()}, pub)

	rec := doJSON(t, mux, http.MethodPost, "/api/model/validate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, pub.staged)
	assert.True(t, sess.Validated)
}

func TestModelHandler_ValidateFailureStatus(t *testing.T) {
	pub := &fakePublisher{validateErr: fmt.Errorf("%w: table orders: column missing not found", apperrors.ErrValidation)}
	_, _, mux := newHandler(t, &fakeInference{table: ordersTable()}, pub)

	rec := doJSON(t, mux, http.MethodPost, "/api/model/validate", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_failure")
}

func TestModelHandler_Publish(t *testing.T) {
	pub := &fakePublisher{}
	_, _, mux := newHandler(t, &fakeInference{table: ordersTable()}, pub)

	rec := doJSON(t, mux, http.MethodPost, "/api/model/publish", PublishRequest{Name: "orders_model"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"orders_model"}, pub.published)
}

// refNamingInference names each inferred table after the requested
// physical table, so concurrent adds do not collide.
type refNamingInference struct{}

func (refNamingInference) InferTable(_ context.Context, ref warehouse.TableRef) (*models.Table, error) {
	return &models.Table{
		Name:      strings.ToLower(ref.Table),
		BaseTable: models.BaseTable{Database: ref.Database, Schema: ref.Schema, Table: ref.Table},
		Dimensions: []models.Dimension{
			{Name: "id", Expr: "id", DataType: "NUMBER"},
		},
	}, nil
}

func (f refNamingInference) InferTables(ctx context.Context, refs []warehouse.TableRef) ([]models.Table, error) {
	var out []models.Table
	for _, ref := range refs {
		t, err := f.InferTable(ctx, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

func TestModelHandler_ConcurrentRequests(t *testing.T) {
	sess := session.New(nil)
	sess.Model.Name = "sales"
	h := NewModelHandler(sess, refNamingInference{}, &fakePublisher{}, zap.NewNop())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	const n = 16
	var wg sync.WaitGroup
	addCodes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			rec := doJSON(t, mux, http.MethodPost, "/api/model/tables", AddTableRequest{
				Database: "analytics",
				Schema:   "public",
				Table:    fmt.Sprintf("TABLE_%02d", i),
			})
			addCodes[i] = rec.Code
		}(i)
		go func() {
			defer wg.Done()
			doJSON(t, mux, http.MethodGet, "/api/model", nil)
		}()
	}
	wg.Wait()

	for i, code := range addCodes {
		assert.Equal(t, http.StatusOK, code, "add %d", i)
	}
	assert.Len(t, sess.Model.Tables, n)

	// The model is still coherent after the interleaved requests.
	text, err := sess.Export()
	require.NoError(t, err)
	assert.Contains(t, text, "table_00")
	assert.Contains(t, text, "table_15")
}

func TestModelHandler_PublishErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation failure",
			err:        fmt.Errorf("%w: model name is empty", apperrors.ErrValidation),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "validation_failure",
		},
		{
			name:       "upload failure",
			err:        fmt.Errorf("%w: write orders_model.yaml: stage unavailable", apperrors.ErrUpload),
			wantStatus: http.StatusBadGateway,
			wantCode:   "upload_failure",
		},
		{
			name:       "parse failure",
			err:        fmt.Errorf("%w: empty document", apperrors.ErrParse),
			wantStatus: http.StatusBadRequest,
			wantCode:   "parse_failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{publishErr: tt.err}
			_, _, mux := newHandler(t, &fakeInference{table: ordersTable()}, pub)

			rec := doJSON(t, mux, http.MethodPost, "/api/model/publish", PublishRequest{Name: "orders_model"})
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), tt.wantCode))
		})
	}
}
