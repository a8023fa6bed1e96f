package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/rpc"
	"github.com/agrilink/agrilink/internal/session"
	"github.com/agrilink/agrilink/internal/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// userStore is a minimal in-memory users repository.
type userStore struct {
	rows map[string]*users.User
	next int64
}

func newUserStore() *userStore {
	return &userStore{rows: make(map[string]*users.User), next: 1}
}

func (s *userStore) Upsert(_ context.Context, openID string, insert, update map[string]any) error {
	u, ok := s.rows[openID]
	if !ok {
		u = &users.User{ID: s.next, OpenID: openID, Role: users.RolePublic, IsActive: true}
		s.next++
		s.rows[openID] = u
		if r, ok := insert["role"].(users.Role); ok {
			u.Role = r
		}
		return nil
	}
	if r, ok := update["role"].(users.Role); ok {
		u.Role = r
	}
	return nil
}

func (s *userStore) GetByOpenID(_ context.Context, openID string) (*users.User, error) {
	u, ok := s.rows[openID]
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}

func (s *userStore) GetByID(_ context.Context, id int64) (*users.User, error) {
	for _, u := range s.rows {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, users.ErrNotFound
}

func (s *userStore) List(_ context.Context) ([]*users.User, error) {
	var out []*users.User
	for _, u := range s.rows {
		out = append(out, u)
	}
	return out, nil
}

// newTestServer builds a Server around a small procedure surface that is
// enough to exercise the transport behavior.
func newTestServer(t *testing.T) (*gin.Engine, *session.Issuer, *userStore, *Server) {
	t.Helper()
	log := zap.NewNop()
	store := newUserStore()
	userSvc := users.NewService(store, "owner-open-id", log)
	tokens := session.NewIssuer([]byte("test-secret"), "http://localhost:8080", 0)

	reg := rpc.NewRegistry()
	reg.Register(&rpc.Procedure{
		Name: "echo.me",
		Kind: rpc.Query,
		Handler: func(ctx *rpc.Ctx, _ rpc.Input) (any, error) {
			if ctx.Caller == nil {
				return nil, nil
			}
			return ctx.Caller, nil
		},
	})
	reg.Register(&rpc.Procedure{
		Name:   "echo.create",
		Kind:   rpc.Mutation,
		Guards: []rpc.Guard{rpc.Authenticated()},
		Schema: rpc.Schema{"title": {Type: rpc.String, Required: true}},
		Handler: func(_ *rpc.Ctx, in rpc.Input) (any, error) {
			return map[string]any{"title": in.Text("title")}, nil
		},
	})
	reg.Register(&rpc.Procedure{
		Name: "echo.logout",
		Kind: rpc.Mutation,
		Handler: func(ctx *rpc.Ctx, _ rpc.Input) (any, error) {
			ctx.ClearSession()
			return map[string]any{"success": true}, nil
		},
	})

	hash, err := bcrypt.GenerateFromPassword([]byte("owner-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	auth := NewAuthHandler(userSvc, tokens, nil, log)
	auth.SetOwner("owner-open-id", string(hash))

	srv := New(reg, tokens, userSvc, auth, Config{CORSOrigins: []string{"http://localhost:3000"}}, log)
	auth.SetCookieWriter(srv.setSessionCookie)
	return srv.Router(), tokens, store, srv
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRPC_anonymousQuery(t *testing.T) {
	router, _, _, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/rpc/echo.me", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Result any `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Result != nil {
		t.Fatalf("anonymous result = %v, want null", resp.Result)
	}
}

func TestRPC_bearerSession(t *testing.T) {
	router, tokens, store, _ := newTestServer(t)

	store.rows["github:42"] = &users.User{ID: 7, OpenID: "github:42", Role: users.RoleFarmer, IsActive: true}
	tok, err := tokens.Issue("github:42")
	if err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, router, http.MethodPost, "/api/v1/rpc/echo.me", "", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Result users.User `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Result.OpenID != "github:42" || resp.Result.Role != users.RoleFarmer {
		t.Fatalf("result = %+v", resp.Result)
	}
}

func TestRPC_inactiveUserStaysAnonymous(t *testing.T) {
	router, tokens, store, _ := newTestServer(t)

	store.rows["github:42"] = &users.User{ID: 7, OpenID: "github:42", Role: users.RoleFarmer, IsActive: false}
	tok, _ := tokens.Issue("github:42")

	w := doJSON(t, router, http.MethodPost, "/api/v1/rpc/echo.create",
		`{"title":"x"}`, tok)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401; body = %s", w.Code, w.Body.String())
	}
}

func TestRPC_errorBody(t *testing.T) {
	router, tokens, store, _ := newTestServer(t)

	store.rows["github:42"] = &users.User{ID: 7, OpenID: "github:42", Role: users.RolePublic, IsActive: true}
	tok, _ := tokens.Issue("github:42")

	w := doJSON(t, router, http.MethodPost, "/api/v1/rpc/echo.create", `{}`, tok)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
		Field string `json:"field"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != string(apperr.CodeValidationFailed) || resp.Field != "title" {
		t.Fatalf("error body = %+v", resp)
	}
}

func TestRPC_unknownProcedure(t *testing.T) {
	router, _, _, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/rpc/no.such", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestRPC_getRejectsMutations(t *testing.T) {
	router, _, _, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/rpc/echo.create", "", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestRPC_getQueryWithInputParam(t *testing.T) {
	router, tokens, store, _ := newTestServer(t)

	store.rows["github:42"] = &users.User{ID: 7, OpenID: "github:42", Role: users.RolePublic, IsActive: true}
	tok, _ := tokens.Issue("github:42")

	w := doJSON(t, router, http.MethodGet, "/api/v1/rpc/echo.me?input=%7B%7D", "", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestRPC_logoutClearsCookie(t *testing.T) {
	router, _, _, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/rpc/echo.logout", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	cookie := w.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, session.CookieName+"=") || !strings.Contains(cookie, "Max-Age=0") {
		t.Fatalf("session cookie not cleared: %q", cookie)
	}
}

func TestOwnerToken_exchange(t *testing.T) {
	router, _, store, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/owner-token",
		`{"secret":"wrong"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret status = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/owner-token",
		`{"secret":"owner-secret"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string      `json:"token"`
		User  *users.User `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Fatal("no session token in response")
	}
	if resp.User == nil || resp.User.Role != users.RoleAdmin {
		t.Fatalf("owner user = %+v, want admin", resp.User)
	}
	if u := store.rows["owner-open-id"]; u == nil || u.Role != users.RoleAdmin {
		t.Fatal("owner identity not promoted to admin in storage")
	}
}

func TestHealthz(t *testing.T) {
	router, _, _, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
