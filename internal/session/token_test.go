package session_test

import (
	"testing"
	"time"

	"github.com/agrilink/agrilink/internal/session"
)

func newIssuer(ttl time.Duration) *session.Issuer {
	return session.NewIssuer([]byte("test-secret"), "http://localhost:8080", ttl)
}

func TestIssueAndVerify(t *testing.T) {
	iss := newIssuer(0)

	tok, err := iss.Issue("github:12345")
	if err != nil {
		t.Fatal(err)
	}
	openID, err := iss.Verify(tok)
	if err != nil {
		t.Fatal(err)
	}
	if openID != "github:12345" {
		t.Errorf("openID = %q", openID)
	}
}

func TestVerify_rejectsExpired(t *testing.T) {
	iss := newIssuer(-time.Minute)

	tok, err := iss.Issue("github:12345")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.Verify(tok); err == nil {
		t.Fatal("expired token verified")
	}
}

func TestVerify_rejectsWrongSecret(t *testing.T) {
	tok, err := newIssuer(0).Issue("github:12345")
	if err != nil {
		t.Fatal(err)
	}
	other := session.NewIssuer([]byte("other-secret"), "http://localhost:8080", 0)
	if _, err := other.Verify(tok); err == nil {
		t.Fatal("token verified under wrong secret")
	}
}

func TestVerify_rejectsStateToken(t *testing.T) {
	iss := newIssuer(0)

	state, err := iss.IssueState("github")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.Verify(state); err == nil {
		t.Fatal("oauth state token accepted as session")
	}

	provider, err := iss.VerifyState(state)
	if err != nil {
		t.Fatal(err)
	}
	if provider != "github" {
		t.Errorf("provider = %q", provider)
	}
}

func TestVerifyState_rejectsSessionToken(t *testing.T) {
	iss := newIssuer(0)

	tok, _ := iss.Issue("github:12345")
	if _, err := iss.VerifyState(tok); err == nil {
		t.Fatal("session token accepted as oauth state")
	}
}
