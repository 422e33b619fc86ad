package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cxr-learning/internal/client"
	httpapi "cxr-learning/internal/http"
	"cxr-learning/internal/knowledge"
	"cxr-learning/internal/service"
	"cxr-learning/internal/session"
	"cxr-learning/internal/store"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	serverURL, sessionID, kbFile = "", "", ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--raw"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestOffline_CasesAndCase(t *testing.T) {
	out, err := run(t, "cases", "--difficulty", "beginner")
	require.NoError(t, err)
	assert.Contains(t, out, "| ID | Title | Difficulty |")
	assert.Contains(t, out, "beginner")
	assert.NotContains(t, out, "| advanced |")

	out, err = run(t, "case", "case_001")
	require.NoError(t, err)
	assert.Contains(t, out, "## Patient History")
	assert.NotContains(t, out, "Teaching Points")

	out, err = run(t, "case", "case_001", "--reveal")
	require.NoError(t, err)
	assert.Contains(t, out, "Teaching Points")

	_, err = run(t, "case", "missing")
	assert.Error(t, err)
}

func TestOffline_Tools(t *testing.T) {
	out, err := run(t, "ctr", "140", "280")
	require.NoError(t, err)
	assert.Equal(t, "CTR: 50.0% (Normal heart size)\n", out)

	out, err = run(t, "ctr", "140", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "invalid")

	_, err = run(t, "ctr", "wide", "280")
	assert.Error(t, err)

	out, err = run(t, "match", "-f", "linear_opacities", "-d", "basal")
	require.NoError(t, err)
	assert.Contains(t, out, "| reticular | 0.67 |")

	out, err = run(t, "differential", "nodular", "nowhere")
	require.NoError(t, err)
	assert.Contains(t, out, "- Consider clinical correlation")

	_, err = run(t, "report")
	assert.ErrorIs(t, err, errNeedsServer)
}

func TestOffline_Knowledge(t *testing.T) {
	out, err := run(t, "kb")
	require.NoError(t, err)
	assert.Contains(t, out, "# Chest X-Ray Knowledge Base")
}

func TestRemote_ImpressionAndReport(t *testing.T) {
	logger := zap.NewNop()
	kb, err := knowledge.Load()
	require.NoError(t, err)
	sessions := httpapi.NewSessionManager(session.NewStore(store.NewMemoryKV()), logger)
	svc := service.New(kb, logger)
	router := httpapi.NewRouter(logger)
	router.RegisterAPIRoutes(httpapi.NewAPIHandler(svc, kb, sessions, 1<<20, logger))
	srv := httptest.NewServer(router)
	defer srv.Close()

	// 先在服务端建立会话，之后的命令通过 --session 复用
	id := newTestSession(t, srv.URL)

	_, err = run(t, "--server", srv.URL, "--session", id, "impression", "No", "acute", "disease")
	require.NoError(t, err)

	xlsx := filepath.Join(t.TempDir(), "report.xlsx")
	out, err := run(t, "--server", srv.URL, "--session", id, "report", "--xlsx", xlsx)
	require.NoError(t, err)
	assert.Contains(t, out, "IMPRESSION:\nNo acute disease")
	assert.Contains(t, out, "Workbook written to")

	info, err := os.Stat(xlsx)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func newTestSession(t *testing.T, base string) string {
	t.Helper()
	c := client.NewClient(base, zap.NewNop())
	_, err := c.Session()
	require.NoError(t, err)
	return c.SessionID()
}
