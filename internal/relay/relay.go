// Package relay implements the same-origin forwarding relay: a stateless
// pass-through that re-issues every inbound request against a fixed upstream
// origin and injects permissive cross-origin headers on the way back.
package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/tzkusman/live-storefront/internal/log"
)

// Handler forwards requests to a fixed upstream origin.
type Handler struct {
	upstream *url.URL
	client   *http.Client
}

// ErrorBody is the structured 502 payload for upstream connection failures.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// New creates a relay targeting the given upstream origin, e.g.
// "http://127.0.0.1:54321".
func New(upstream string) (*Handler, error) {
	u, err := url.Parse(upstream)
	if err != nil {
		return nil, err
	}
	return &Handler{
		upstream: u,
		client: &http.Client{
			// Redirects are passed back to the caller untouched.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w.Header())

	// Preflight never reaches the upstream.
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	target := *h.upstream
	target.Path = r.URL.Path
	target.RawQuery = r.URL.RawQuery

	outbound, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		h.writeGatewayError(w, err)
		return
	}
	outbound.Header = r.Header.Clone()
	outbound.Host = h.upstream.Host

	resp, err := h.client.Do(outbound)
	if err != nil {
		h.writeGatewayError(w, err)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		l := log.Ctx(r.Context())
		l.Debug().Err(err).Msg("response stream interrupted")
	}
}

func (h *Handler) writeGatewayError(w http.ResponseWriter, err error) {
	l := log.L()
	l.Error().Err(err).Str("upstream", h.upstream.String()).Msg("upstream connection failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	json.NewEncoder(w).Encode(ErrorBody{
		Error:   "Bad Gateway",
		Message: "Could not connect to upstream",
		Details: err.Error(),
	})
}

func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Client-Info, apikey")
	h.Set("Access-Control-Max-Age", "3600")
}
