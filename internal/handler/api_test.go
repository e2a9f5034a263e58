package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelayejinyi/mfv-labeller/internal/corpus"
	"github.com/angelayejinyi/mfv-labeller/internal/handler"
	"github.com/angelayejinyi/mfv-labeller/internal/models"
	"github.com/angelayejinyi/mfv-labeller/internal/repository"
	"github.com/angelayejinyi/mfv-labeller/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var b strings.Builder
	b.WriteString("foundation,label,title,description,scenario\n")
	row := 0
	for _, f := range []string{"care", "fairness", "loyalty"} {
		for i := 0; i < 5; i++ {
			fmt.Fprintf(&b, "%s,original,T%d,D%d,S%d\n", f, row, row, row)
			row++
		}
		for i := 0; i < 10; i++ {
			fmt.Fprintf(&b, "%s,generated,T%d,D%d,S%d\n", f, row, row, row)
			row++
		}
	}
	idx, err := corpus.Read(strings.NewReader(b.String()))
	require.NoError(t, err)

	repo, err := repository.NewStudyRepository(filepath.Join(t.TempDir(), "api.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	study := service.NewStudy(idx, repo, rand.New(rand.NewSource(23)), service.Options{
		OriginalQuota:           10,
		GeneratedQuota:          20,
		AcceptUnassignedRatings: true,
	}, zap.NewNop())

	router := gin.New()
	handler.NewHandler(study, idx, "", zap.NewNop()).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, router *gin.Engine, name string) models.ParticipantPayload {
	t.Helper()

	var body interface{}
	if name != "" {
		body = gin.H{"name": name}
	}
	rec := doJSON(t, router, http.MethodPost, "/register", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload models.ParticipantPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestRegisterEndpoint(t *testing.T) {
	router := newTestRouter(t)

	payload := register(t, router, "Attendee")
	assert.NotEmpty(t, payload.ParticipantID)
	assert.Equal(t, "Attendee", payload.Name)
	assert.Len(t, payload.AssignedFoundations, 2)
	assert.Len(t, payload.Samples, 30)
}

func TestRegisterWithoutBody(t *testing.T) {
	router := newTestRouter(t)

	payload := register(t, router, "")
	assert.NotEmpty(t, payload.ParticipantID)
	assert.Empty(t, payload.Name)
}

func TestFetchParticipantSamples(t *testing.T) {
	router := newTestRouter(t)
	registered := register(t, router, "")

	rec := doJSON(t, router, http.MethodGet, "/participant/"+registered.ParticipantID+"/samples", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched models.ParticipantPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	require.Len(t, fetched.Samples, len(registered.Samples))
	for i := range registered.Samples {
		assert.Equal(t, registered.Samples[i].ID, fetched.Samples[i].ID)
	}
}

func TestFetchUnknownParticipant(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/participant/nope/samples", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitRating(t *testing.T) {
	router := newTestRouter(t)
	payload := register(t, router, "")
	sampleID := payload.Samples[0].ID

	rec := doJSON(t, router, http.MethodPost, "/submit", gin.H{
		"participant_id": payload.ParticipantID,
		"sample_id":      sampleID,
		"rating":         3,
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSubmitRejectsBadRequests(t *testing.T) {
	router := newTestRouter(t)
	payload := register(t, router, "")

	tests := []struct {
		name string
		body gin.H
		code int
	}{
		{
			name: "missing fields",
			body: gin.H{"participant_id": payload.ParticipantID},
			code: http.StatusBadRequest,
		},
		{
			name: "rating out of range",
			body: gin.H{"participant_id": payload.ParticipantID, "sample_id": payload.Samples[0].ID, "rating": 9},
			code: http.StatusBadRequest,
		},
		{
			name: "unknown participant",
			body: gin.H{"participant_id": "nope", "sample_id": 0, "rating": 2},
			code: http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/submit", tc.body)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}
}

func TestAdminAssignments(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "")
	register(t, router, "")

	rec := doJSON(t, router, http.MethodGet, "/admin/assignments", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report models.AssignmentReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	total := 0
	for _, n := range report.PairCounts {
		total += n
	}
	assert.Equal(t, 2, total)
}

func TestAdminResponses(t *testing.T) {
	router := newTestRouter(t)
	payload := register(t, router, "")

	doJSON(t, router, http.MethodPost, "/submit", gin.H{
		"participant_id": payload.ParticipantID,
		"sample_id":      payload.Samples[0].ID,
		"rating":         1,
	})

	rec := doJSON(t, router, http.MethodGet, "/admin/responses", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report models.ResponsesReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Len(t, report.RecentResponses, 1)
}

func TestExportResponsesCSV(t *testing.T) {
	router := newTestRouter(t)
	payload := register(t, router, "")

	doJSON(t, router, http.MethodPost, "/submit", gin.H{
		"participant_id": payload.ParticipantID,
		"sample_id":      payload.Samples[0].ID,
		"rating":         2,
	})

	rec := doJSON(t, router, http.MethodGet, "/admin/export/responses.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "participant_id,sample_id,rating,ts,"))
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		OK            bool     `json:"ok"`
		SamplesLoaded int      `json:"samples_loaded"`
		Foundations   []string `json:"foundations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, 45, body.SamplesLoaded)
	assert.Equal(t, []string{"care", "fairness", "loyalty"}, body.Foundations)
}
