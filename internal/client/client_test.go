package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cxr-learning/internal/casestudy"
	httpapi "cxr-learning/internal/http"
	"cxr-learning/internal/knowledge"
	"cxr-learning/internal/service"
	"cxr-learning/internal/session"
	"cxr-learning/internal/store"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()
	kb, err := knowledge.Load()
	require.NoError(t, err)

	svc := service.New(kb, logger)
	sessions := httpapi.NewSessionManager(session.NewStore(store.NewMemoryKV()), logger)
	router := httpapi.NewRouter(logger)
	router.RegisterAPIRoutes(httpapi.NewAPIHandler(svc, kb, sessions, 1<<20, logger))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_SessionIsReused(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.URL, zap.NewNop())

	info, err := c.Session()
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, info.ID, c.SessionID())

	m, err := c.CTR(130, 250)
	require.NoError(t, err)
	assert.Equal(t, 52.0, m.Ratio)

	again, err := c.Session()
	require.NoError(t, err)
	assert.Equal(t, info.ID, again.ID)

	report, err := c.Report()
	require.NoError(t, err)
	assert.Contains(t, report, "MEASUREMENTS:")
}

func TestClient_ResetSession(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.URL, zap.NewNop())

	require.NoError(t, c.SetImpression("Clear lungs"))
	old := c.SessionID()

	info, err := c.ResetSession()
	require.NoError(t, err)
	assert.NotEqual(t, old, info.ID)
	assert.Equal(t, info.ID, c.SessionID())

	report, err := c.Report()
	require.NoError(t, err)
	assert.NotContains(t, report, "Clear lungs")
}

func TestClient_CasesAndPatterns(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.URL, zap.NewNop())

	list, err := c.Cases("advanced", "")
	require.NoError(t, err)
	assert.Equal(t, len(list.Items), list.Total)
	assert.Equal(t, "All", list.Categories[0])

	view, err := c.Case("case_001")
	require.NoError(t, err)
	assert.Equal(t, "case_001", view.Case.ID)
	assert.NotEmpty(t, view.Checklist)

	a, err := c.AttemptCase("case_001", casestudy.AttemptInput{Diagnosis: "pneumonia", Submit: true})
	require.NoError(t, err)
	assert.True(t, a.Submitted)

	_, err = c.Case("nope")
	assert.ErrorIs(t, err, ErrAPI)

	scores, err := c.Match([]string{"linear_opacities"}, "basal")
	require.NoError(t, err)
	require.NotEmpty(t, scores)
	assert.Equal(t, "reticular", scores[0].Pattern)

	dx, err := c.Differential("reticular", "basal")
	require.NoError(t, err)
	assert.Contains(t, dx, "Usual Interstitial Pneumonia (IPF)")
}

func TestClient_TechnicalAndKnowledge(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.URL, zap.NewNop())

	res, err := c.RecordTechnical("motion", map[string]string{"ribs": "Slightly blurred"})
	require.NoError(t, err)
	assert.Equal(t, "mild_motion", res.Quality)

	_, err = c.RecordTechnical("lungs", nil)
	assert.ErrorIs(t, err, ErrAPI)

	kb, err := c.Knowledge()
	require.NoError(t, err)
	assert.Len(t, kb.Cases, 6)

	xlsx, err := c.ExportReport()
	require.NoError(t, err)
	assert.Equal(t, "PK", string(xlsx[:2]))
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	_, err := c.Session()
	assert.ErrorIs(t, err, ErrAPI)
}
