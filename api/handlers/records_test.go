package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/BaSui01/dearvoice/types"
)

func TestRecordHandler_PatientRoundTrip(t *testing.T) {
	store := newFakeRecordStore()
	h := NewRecordHandler(store, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/db/insertPatient", strings.NewReader(`{"name":"Ada","room":12}`))
	w := httptest.NewRecorder()
	h.HandleInsertPatient(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "patient-1", data["id"])

	req = httptest.NewRequest(http.MethodGet, "/db/getPatient/patient-1", nil)
	req.SetPathValue("id", "patient-1")
	w = httptest.NewRecorder()
	h.HandleGetPatient(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	rec := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "Ada", rec["name"])
	assert.Equal(t, float64(12), rec["room"])
}

func TestRecordHandler_User(t *testing.T) {
	store := newFakeRecordStore()
	h := NewRecordHandler(store, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/db/insertUser", strings.NewReader(`{"email":"a@b.c"}`))
	w := httptest.NewRecorder()
	h.HandleInsertUser(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/db/getUser/user-1", nil)
	req.SetPathValue("id", "user-1")
	w = httptest.NewRecorder()
	h.HandleGetUser(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecordHandler_Errors(t *testing.T) {
	store := newFakeRecordStore()
	h := NewRecordHandler(store, zap.NewNop())

	for _, body := range []string{`{}`, `null`, `[1,2]`, `{bad`} {
		req := httptest.NewRequest(http.MethodPost, "/db/insertPatient", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.HandleInsertPatient(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	req := httptest.NewRequest(http.MethodGet, "/db/getUser/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()
	h.HandleGetUser(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(types.ErrNotFound), errorCode(t, decodeBody(t, w)))

	store.err = errors.New("connection refused")
	req = httptest.NewRequest(http.MethodPost, "/db/insertUser", strings.NewReader(`{"email":"a@b.c"}`))
	w = httptest.NewRecorder()
	h.HandleInsertUser(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, string(types.ErrInternalError), errorCode(t, decodeBody(t, w)))
}
