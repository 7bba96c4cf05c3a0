package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const (
	testAppID        = "cli_test"
	testAppSecret    = "secret"
	testTenantToken  = "t-test"
	testAppToken     = "a-test"
	tenantTokenRoute = "/open-apis/auth/v3/tenant_access_token/internal"
	appTokenRoute    = "/open-apis/auth/v3/app_access_token/internal"
)

// larkServer fakes the auth endpoints and lets tests mount their own routes.
type larkServer struct {
	*httptest.Server
	mux         *http.ServeMux
	tenantCalls atomic.Int32
	appCalls    atomic.Int32
	expire      int
	// gate, when set before the first request, holds tenant token responses
	// until it is closed.
	gate chan struct{}
}

func newLarkServer(t *testing.T) *larkServer {
	t.Helper()
	s := &larkServer{mux: http.NewServeMux(), expire: 7200}
	s.mux.HandleFunc(tenantTokenRoute, func(w http.ResponseWriter, r *http.Request) {
		s.tenantCalls.Add(1)
		if s.gate != nil {
			<-s.gate
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["app_id"] != testAppID || body["app_secret"] != testAppSecret {
			writeJSON(w, http.StatusOK, map[string]any{"code": CodeAppSecretInvalid, "msg": "app secret invalid"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"code": 0, "msg": "ok", "tenant_access_token": testTenantToken, "expire": s.expire})
	})
	s.mux.HandleFunc(appTokenRoute, func(w http.ResponseWriter, r *http.Request) {
		s.appCalls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"code": 0, "msg": "ok", "app_access_token": testAppToken, "expire": s.expire})
	})
	s.Server = httptest.NewServer(s.mux)
	t.Cleanup(s.Close)
	return s
}

func (s *larkServer) handle(pattern string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, h)
}

func (s *larkServer) client(mutate ...func(*Config)) *Client {
	cfg := Config{AppID: testAppID, AppSecret: testAppSecret, BaseURL: s.URL}
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func okEnvelope(data any) map[string]any {
	return map[string]any{"code": 0, "msg": "success", "data": data}
}
