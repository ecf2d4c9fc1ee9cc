package queryapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinytelemetry/nlconsole/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBackend serves a canned status and raw body for the query endpoint.
func fakeBackend(t *testing.T, status int, body string) (*httptest.Server, *[]*http.Request) {
	t.Helper()
	var seen []*http.Request

	r := gin.New()
	r.POST(QueryPath, func(c *gin.Context) {
		var req struct {
			Question string `json:"question"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusTeapot, "bad request body")
			return
		}
		seen = append(seen, c.Request)
		c.Data(status, "application/json", []byte(body))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestAsk_SuccessKeepsColumnOrder(t *testing.T) {
	srv, seen := fakeBackend(t, http.StatusOK, `{
		"answer": "bob used it most",
		"question": "who used photoshop?",
		"data": [
			{"user": "alice", "result": 3600, "active": true},
			{"user": "bob", "result": 7200.5, "active": null}
		]
	}`)
	c := New(Config{BaseURL: srv.URL + "/"}, nil)

	ans, err := c.Ask(context.Background(), "who used photoshop?")
	require.NoError(t, err)

	assert.Equal(t, "bob used it most", ans.Answer)
	assert.Equal(t, "who used photoshop?", ans.Question)
	require.Len(t, ans.Data, 2)
	assert.Equal(t, []string{"user", "result", "active"}, ans.Data.Columns())
	assert.Equal(t, model.Row{
		{Name: "user", Value: "bob"},
		{Name: "result", Value: 7200.5},
		{Name: "active", Value: nil},
	}, ans.Data[1])

	require.Len(t, *seen, 1)
	assert.NotEmpty(t, (*seen)[0].Header.Get(RequestIDHeader))
	assert.Equal(t, "application/json", (*seen)[0].Header.Get("Content-Type"))
}

func TestAsk_NoData(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantNil bool
	}{
		{"missing", `{"answer":"hi"}`, true},
		{"null", `{"answer":"hi","data":null}`, true},
		{"empty", `{"answer":"hi","data":[]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeBackend(t, http.StatusOK, tt.body)
			ans, err := New(Config{BaseURL: srv.URL}, nil).Ask(context.Background(), "q")
			require.NoError(t, err)
			assert.Empty(t, ans.Data)
			assert.Equal(t, tt.wantNil, ans.Data == nil)
		})
	}
}

func TestAsk_ServerErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"answer wins", `{"answer":"bad question","error":"boom"}`, "bad question"},
		{"error field", `{"error":"boom"}`, "boom"},
		{"neither", `{}`, "Unknown server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeBackend(t, http.StatusInternalServerError, tt.body)

			_, err := New(Config{BaseURL: srv.URL}, nil).Ask(context.Background(), "q")

			var se *model.ServerError
			require.True(t, errors.As(err, &se), "got %T", err)
			assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
			assert.Equal(t, tt.want, se.Message)
		})
	}
}

func TestAsk_InvalidJSONIsNetworkError(t *testing.T) {
	srv, _ := fakeBackend(t, http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := New(Config{BaseURL: srv.URL}, nil).Ask(context.Background(), "q")

	var ne *model.NetworkError
	assert.True(t, errors.As(err, &ne), "got %T", err)
}

func TestAsk_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(Config{BaseURL: url}, nil).Ask(context.Background(), "q")

	var ne *model.NetworkError
	assert.True(t, errors.As(err, &ne), "got %T", err)
}

func TestAsk_Timeout(t *testing.T) {
	r := gin.New()
	r.POST(QueryPath, func(c *gin.Context) {
		time.Sleep(200 * time.Millisecond)
		c.JSON(http.StatusOK, gin.H{"answer": "late"})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	_, err := New(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, nil).Ask(context.Background(), "q")

	var ne *model.NetworkError
	assert.True(t, errors.As(err, &ne), "got %T", err)
}

func TestDecodeRows_ScalarItems(t *testing.T) {
	srv, _ := fakeBackend(t, http.StatusOK, `{"answer":"a","data":[1,"two",{"nested":{"k":1}}]}`)

	ans, err := New(Config{BaseURL: srv.URL}, nil).Ask(context.Background(), "q")
	require.NoError(t, err)

	require.Len(t, ans.Data, 3)
	assert.Equal(t, model.Row{{Name: "value", Value: 1.0}}, ans.Data[0])
	assert.Equal(t, model.Row{{Name: "value", Value: "two"}}, ans.Data[1])
	assert.Equal(t, model.Row{{Name: "nested", Value: `{"k":1}`}}, ans.Data[2])
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{}, nil)
	assert.Equal(t, model.DefaultAPIURL, c.BaseURL())
}
