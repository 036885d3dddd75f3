package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/quillpress/quillpress/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPitches_WriterFlow(t *testing.T) {
	h := newHarness(t)
	adaID, ada := h.member("ada@example.com")
	admin := h.admin()
	body := `{"title":"The Engine","synopsis":"Notes on the analytical engine","category":"history"}`

	r := h.do(http.MethodPost, "/api/pitches", ada, body)
	assert.Equal(t, http.StatusForbidden, r.Code, "readers cannot pitch")

	r = h.do(http.MethodPatch, "/api/admin/users/"+adaID, admin, `{"isWriter":true}`)
	require.Equal(t, http.StatusOK, r.Code)

	// the old token still says isWriter=false; the handler reads the account
	r = h.do(http.MethodPost, "/api/pitches", ada, body)
	require.Equal(t, http.StatusCreated, r.Code, r.Body)
	pitch := r.obj("pitch")
	assert.Equal(t, "pending", pitch["status"])
	assert.Equal(t, "ada@example.com", pitch["writerEmail"])
	id := pitch["_id"].(string)

	r = h.do(http.MethodGet, "/api/pitches/mine", ada, "")
	require.Equal(t, http.StatusOK, r.Code)
	assert.Len(t, r.Body["pitches"], 1)

	r = h.do(http.MethodPatch, "/api/admin/pitches/"+id, admin, `{"status":"accepted","note":"Lovely idea"}`)
	require.Equal(t, http.StatusOK, r.Code)
	notes := r.obj("pitch")["notes"].([]interface{})
	require.Len(t, notes, 1)
	assert.Equal(t, adminEmail, notes[0].(map[string]interface{})["authorEmail"])

	r = h.do(http.MethodGet, "/api/admin/pitches?status=accepted", admin, "")
	require.Equal(t, http.StatusOK, r.Code)
	assert.EqualValues(t, 1, r.Body["total"])

	r = h.do(http.MethodGet, "/api/admin/pitches?status=bogus", admin, "")
	assert.Equal(t, http.StatusBadRequest, r.Code)

	r = h.do(http.MethodPatch, "/api/admin/pitches/missing", admin, `{"status":"rejected"}`)
	assert.Equal(t, http.StatusNotFound, r.Code)

	r = h.do(http.MethodGet, "/api/admin/pitches", ada, "")
	assert.Equal(t, http.StatusForbidden, r.Code)
}

func TestPitches_ClosedBySettings(t *testing.T) {
	h := newHarness(t)
	adaID, ada := h.member("ada@example.com")
	admin := h.admin()
	r := h.do(http.MethodPatch, "/api/admin/users/"+adaID, admin, `{"isWriter":true}`)
	require.Equal(t, http.StatusOK, r.Code)

	closed := false
	_, err := h.settings.Update(context.Background(), settings.Patch{AllowPitches: &closed})
	require.NoError(t, err)

	r = h.do(http.MethodPost, "/api/pitches", ada, `{"title":"t","synopsis":"s"}`)
	assert.Equal(t, http.StatusForbidden, r.Code)
}
