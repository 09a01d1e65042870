package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayForwardsRequestAndResponse(t *testing.T) {
	var got struct {
		method string
		path   string
		query  string
		body   string
		auth   string
	}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.body = string(body)
		got.auth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"ok":true}`)
	}))
	defer upstream.Close()

	h, err := New(upstream.URL)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/rest/v1/products?select=*", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Authorization", "Bearer token-123")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/rest/v1/products", got.path)
	assert.Equal(t, "select=*", got.query)
	assert.Equal(t, `{"name":"x"}`, got.body)
	assert.Equal(t, "Bearer token-123", got.auth)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRelayAnswersPreflightLocally(t *testing.T) {
	forwarded := false
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded = true
	}))
	defer upstream.Close()

	h, err := New(upstream.URL)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/rest/v1/products", nil))

	assert.False(t, forwarded, "preflight never reaches the upstream")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "apikey")
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestRelayReportsUnreachableUpstream(t *testing.T) {
	// Grab a port that is guaranteed closed by the time the relay dials it.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := upstream.URL
	upstream.Close()

	h, err := New(deadURL)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rest/v1/products", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Bad Gateway", body.Error)
	assert.Equal(t, "Could not connect to upstream", body.Message)
	assert.NotEmpty(t, body.Details)
}

func TestRelayPreservesUpstreamErrorStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "relation does not exist", http.StatusNotFound)
	}))
	defer upstream.Close()

	h, err := New(upstream.URL)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rest/v1/products", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "relation does not exist")
}

func TestRelayPassesRedirectsThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer upstream.Close()

	h, err := New(upstream.URL)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/v1/authorize", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/elsewhere", rec.Header().Get("Location"))
}

func TestRelayRejectsInvalidUpstream(t *testing.T) {
	_, err := New("://not-a-url")
	assert.Error(t, err)
}
