package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinytelemetry/nlconsole/internal/model"
	"github.com/tinytelemetry/nlconsole/internal/queryapi"
	"github.com/tinytelemetry/nlconsole/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBackend answers every question with two categorical rows.
func fakeBackend(t *testing.T, status int) string {
	t.Helper()
	r := gin.New()
	r.POST(queryapi.QueryPath, func(c *gin.Context) {
		var req struct {
			Question string `json:"question"`
		}
		_ = c.ShouldBindJSON(&req)
		if status != http.StatusOK {
			c.JSON(status, gin.H{"error": "backend on fire"})
			return
		}
		c.Data(http.StatusOK, "application/json", []byte(`{
			"answer": "bob worked most",
			"question": "`+req.Question+`",
			"data": [{"user": "alice", "result": 2}, {"user": "bob", "result": 5}]
		}`))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	isolateHome(t)

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "nlconsole")
	assert.Contains(t, out, "Version:")
}

func TestHelpCommand(t *testing.T) {
	isolateHome(t)

	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, want := range []string{"ask", "history", "serve", "version"} {
		assert.Contains(t, out, want)
	}
}

func TestAskCommand_Table(t *testing.T) {
	isolateHome(t)
	url := fakeBackend(t, http.StatusOK)

	out, err := execute(t, "--ephemeral", "--api-url", url, "ask", "--no-chart", "who", "worked", "most")
	require.NoError(t, err)

	assert.Contains(t, out, "bob worked most")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "(2 rows)")
}

func TestAskCommand_CSV(t *testing.T) {
	isolateHome(t)
	url := fakeBackend(t, http.StatusOK)

	out, err := execute(t, "--ephemeral", "--api-url", url, "ask", "-f", "csv", "q")
	require.NoError(t, err)
	assert.Equal(t, "user,result\nalice,2\nbob,5\n", out)
}

func TestAskCommand_JSON(t *testing.T) {
	isolateHome(t)
	url := fakeBackend(t, http.StatusOK)

	out, err := execute(t, "--ephemeral", "--api-url", url, "ask", "--format", "json", "q")
	require.NoError(t, err)

	var env struct {
		Query     string           `json:"query"`
		Timestamp string           `json:"timestamp"`
		Results   []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	assert.Equal(t, "q", env.Query)
	assert.NotEmpty(t, env.Timestamp)
	assert.Len(t, env.Results, 2)
}

func TestAskCommand_ServerError(t *testing.T) {
	isolateHome(t)
	url := fakeBackend(t, http.StatusInternalServerError)

	_, err := execute(t, "--ephemeral", "--api-url", url, "ask", "q")
	require.Error(t, err)
	assert.Equal(t, "Server Error: backend on fire", err.Error())
}

func TestAskCommand_UnknownFormat(t *testing.T) {
	isolateHome(t)

	_, err := execute(t, "--ephemeral", "ask", "--format", "xml", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestAskCommand_Help(t *testing.T) {
	isolateHome(t)

	out, err := execute(t, "--ephemeral", "ask", "help")
	require.NoError(t, err)
	assert.Contains(t, out, "clear")
}

func TestHistoryCommands_RoundTrip(t *testing.T) {
	home := isolateHome(t)
	url := fakeBackend(t, http.StatusOK)
	t.Setenv("NLCONSOLE_DB_PATH", filepath.Join(home, "nl.duckdb"))

	_, err := execute(t, "--api-url", url, "ask", "-f", "csv", "first question")
	require.NoError(t, err)

	out, err := execute(t, "history", "list", "--json")
	require.NoError(t, err)
	var entries []model.HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries), out)
	require.Len(t, entries, 1)
	assert.Equal(t, "first question", entries[0].Query)

	id := entries[0].ID
	out, err = execute(t, "history", "fav", strconv.FormatInt(id, 10))
	require.NoError(t, err)
	assert.Contains(t, out, "Starred")

	out, err = execute(t, "history", "list", "--favorites")
	require.NoError(t, err)
	assert.Contains(t, out, "first question")

	_, err = execute(t, "history", "clear")
	require.Error(t, err, "clear without --yes must refuse")

	out, err = execute(t, "history", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 1")

	out, err = execute(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved queries.")
}

func TestHistoryRemove_Unknown(t *testing.T) {
	isolateHome(t)

	_, err := execute(t, "--ephemeral", "history", "rm", "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no history entry 42")

	_, err = execute(t, "--ephemeral", "history", "rm", "abc")
	require.Error(t, err)
}

func TestHistorySnapshot_Ephemeral(t *testing.T) {
	isolateHome(t)

	_, err := execute(t, "--ephemeral", "history", "snapshot", filepath.Join(t.TempDir(), "s.duckdb"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ephemeral")
}

func TestHistoryBackups(t *testing.T) {
	home := isolateHome(t)
	t.Setenv("NLCONSOLE_DB_PATH", filepath.Join(home, "nl.duckdb"))
	t.Setenv("NLCONSOLE_BACKUP_DIR", filepath.Join(home, "backups"))

	out, err := execute(t, "history", "backups")
	require.NoError(t, err)
	assert.Contains(t, out, "No backups found.")

	out, err = execute(t, "history", "backups", "--now")
	require.NoError(t, err)
	assert.Contains(t, out, "nlconsole-")

	_, err = execute(t, "--ephemeral", "history", "backups", "--now")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ephemeral")
}

func TestRunAsk_ChartInTableOutput(t *testing.T) {
	isolateHome(t)
	url := fakeBackend(t, http.StatusOK)

	sess, err := session.Open(session.Options{APIURL: url, Ephemeral: true, ExportDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	var buf bytes.Buffer
	require.NoError(t, runAsk(context.Background(), sess, "who", askFormatTable, true, &buf))
	out := buf.String()

	// chart title is the echoed question
	assert.True(t, strings.Count(out, "who") >= 1, out)
	assert.Contains(t, out, "(2 rows)")
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{"x", "x"},
		{2.0, "2"},
		{2.5, "2.5"},
		{true, "true"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCell(tt.in))
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestRunServer_ServesUntilCancelled(t *testing.T) {
	isolateHome(t)
	addr := freeAddr(t)
	t.Setenv("NLCONSOLE_EPHEMERAL", "true")
	t.Setenv("NLCONSOLE_API_ADDR", addr)
	cfg, err := loadConfig("", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := new(bytes.Buffer)
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, &cli{cfg: cfg}, out) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("runServer did not return after cancel")
	}
	assert.Contains(t, out.String(), addr)
}

func TestRunServer_AddressInUse(t *testing.T) {
	isolateHome(t)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	t.Setenv("NLCONSOLE_EPHEMERAL", "true")
	t.Setenv("NLCONSOLE_API_ADDR", l.Addr().String())
	cfg, err := loadConfig("", nil)
	require.NoError(t, err)

	err = runServer(context.Background(), &cli{cfg: cfg}, new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start API server")
}
