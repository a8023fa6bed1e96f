package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agrilink/agrilink/pkg/client"
)

func stubAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/rpc/auth.me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer session-token" {
			json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{"openId": "github:42", "role": "farmer"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"result": nil})
	})

	mux.HandleFunc("/api/v1/rpc/forum.questions.create", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		json.NewDecoder(r.Body).Decode(&in)
		if in["title"] == nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": `field "title" is required`,
				"code":  "VALIDATION_FAILED",
				"field": "title",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"id": 1, "title": in["title"]},
		})
	})

	mux.HandleFunc("/api/v1/auth/owner-token", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		if in["secret"] != "owner-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"error": "invalid owner secret"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"token": "session-token"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCall_anonymous(t *testing.T) {
	srv := stubAPIServer(t)
	c := client.MustNew(srv.URL)

	var me map[string]any
	if err := c.Call(context.Background(), "auth.me", nil, &me); err != nil {
		t.Fatal(err)
	}
	if me != nil {
		t.Fatalf("anonymous auth.me = %v, want nil", me)
	}
}

func TestCall_withToken(t *testing.T) {
	srv := stubAPIServer(t)
	c := client.MustNew(srv.URL, client.WithBearerToken("session-token"))

	var me struct {
		OpenID string `json:"openId"`
		Role   string `json:"role"`
	}
	if err := c.Call(context.Background(), "auth.me", nil, &me); err != nil {
		t.Fatal(err)
	}
	if me.OpenID != "github:42" || me.Role != "farmer" {
		t.Fatalf("me = %+v", me)
	}
}

func TestCall_apiError(t *testing.T) {
	srv := stubAPIServer(t)
	c := client.MustNew(srv.URL)

	err := c.Call(context.Background(), "forum.questions.create", map[string]any{}, nil)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != "VALIDATION_FAILED" || apiErr.Field != "title" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestOwnerToken(t *testing.T) {
	srv := stubAPIServer(t)
	c := client.MustNew(srv.URL)

	if _, err := c.OwnerToken(context.Background(), "wrong"); err == nil {
		t.Fatal("wrong secret accepted")
	}

	tok, err := c.OwnerToken(context.Background(), "owner-secret")
	if err != nil {
		t.Fatal(err)
	}
	if tok != "session-token" {
		t.Fatalf("token = %q", tok)
	}

	// The exchanged token is installed for subsequent calls.
	var me struct {
		OpenID string `json:"openId"`
	}
	if err := c.Call(context.Background(), "auth.me", nil, &me); err != nil {
		t.Fatal(err)
	}
	if me.OpenID != "github:42" {
		t.Fatalf("me = %+v", me)
	}
}
