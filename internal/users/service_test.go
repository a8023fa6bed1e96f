package users_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/store"
	"github.com/agrilink/agrilink/internal/users"
)

const ownerID = "owner-open-id"

// ── Stub repo ─────────────────────────────────────────────────────────────
//
// The stub applies the same conflict semantics as the SQL layer: insert the
// row if the key is absent, otherwise apply only the update set.

type stubRepo struct {
	rows        map[string]map[string]any // open_id → columns
	unavailable bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{rows: make(map[string]map[string]any)}
}

func (r *stubRepo) Upsert(_ context.Context, openID string, insert, update map[string]any) error {
	if r.unavailable {
		return apperr.New(apperr.CodeStorageUnavailable, "upsert user")
	}
	row, ok := r.rows[openID]
	if !ok {
		row = map[string]any{"role": users.RolePublic}
		for k, v := range insert {
			row[k] = v
		}
		r.rows[openID] = row
		return nil
	}
	for k, v := range update {
		row[k] = v
	}
	return nil
}

func (r *stubRepo) materialize(openID string) (*users.User, bool) {
	row, ok := r.rows[openID]
	if !ok {
		return nil, false
	}
	u := &users.User{OpenID: openID, IsActive: true}
	if v, ok := row["role"]; ok {
		switch role := v.(type) {
		case users.Role:
			u.Role = role
		case string:
			u.Role = users.Role(role)
		}
	}
	if v, ok := row["name"].(string); ok {
		u.Name = &v
	}
	if v, ok := row["last_signed_in"].(time.Time); ok {
		u.LastSignedIn = v
	}
	return u, true
}

func (r *stubRepo) GetByOpenID(_ context.Context, openID string) (*users.User, error) {
	if r.unavailable {
		return nil, apperr.New(apperr.CodeStorageUnavailable, "query user")
	}
	u, ok := r.materialize(openID)
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}

func (r *stubRepo) GetByID(_ context.Context, _ int64) (*users.User, error) {
	return nil, users.ErrNotFound
}

func (r *stubRepo) List(_ context.Context) ([]*users.User, error) {
	if r.unavailable {
		return nil, apperr.New(apperr.CodeStorageUnavailable, "list users")
	}
	var out []*users.User
	for id := range r.rows {
		u, _ := r.materialize(id)
		out = append(out, u)
	}
	return out, nil
}

func newService(t *testing.T) (*users.Service, *stubRepo) {
	t.Helper()
	repo := newStubRepo()
	return users.NewService(repo, ownerID, zap.NewNop()), repo
}

// ── Upsert ────────────────────────────────────────────────────────────────

func TestUpsert_emptyKeyRejected(t *testing.T) {
	svc, _ := newService(t)

	err := svc.Upsert(context.Background(), users.UpsertInput{})
	if !apperr.IsCode(err, apperr.CodeInvalidKey) {
		t.Fatalf("expected InvalidKey, got %v", err)
	}
}

func TestUpsert_nonOwnerDefaultsToPublic(t *testing.T) {
	svc, repo := newService(t)

	if err := svc.Upsert(context.Background(), users.UpsertInput{OpenID: "u1"}); err != nil {
		t.Fatal(err)
	}
	u, _ := repo.materialize("u1")
	if u.Role != users.RolePublic {
		t.Fatalf("role = %q, want public", u.Role)
	}
}

func TestUpsert_ownerPromotedToAdmin(t *testing.T) {
	svc, repo := newService(t)

	// Repeated calls keep forcing admin as long as no explicit role arrives.
	for i := 0; i < 3; i++ {
		if err := svc.Upsert(context.Background(), users.UpsertInput{OpenID: ownerID}); err != nil {
			t.Fatal(err)
		}
		u, _ := repo.materialize(ownerID)
		if u.Role != users.RoleAdmin {
			t.Fatalf("call %d: role = %q, want admin", i, u.Role)
		}
	}
}

func TestUpsert_explicitRoleWinsOverOwnerRule(t *testing.T) {
	svc, repo := newService(t)

	in := users.UpsertInput{OpenID: ownerID, Role: store.Set(users.RoleFarmer)}
	if err := svc.Upsert(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	u, _ := repo.materialize(ownerID)
	if u.Role != users.RoleFarmer {
		t.Fatalf("role = %q, want farmer (explicit role must win)", u.Role)
	}
}

func TestUpsert_absentRolePreservesExisting(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	if err := svc.Upsert(ctx, users.UpsertInput{OpenID: "u1", Role: store.Set(users.RoleExpert)}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Upsert(ctx, users.UpsertInput{OpenID: "u1", Name: store.Set("Asha")}); err != nil {
		t.Fatal(err)
	}

	u, _ := repo.materialize("u1")
	if u.Role != users.RoleExpert {
		t.Fatalf("role = %q, want expert preserved across role-less upsert", u.Role)
	}
	if u.Name == nil || *u.Name != "Asha" {
		t.Errorf("name not merged: %v", u.Name)
	}
}

func TestUpsert_lastSignedInMonotonic(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return clock })

	// Identical field-less writes: the second must still record a touch.
	if err := svc.Upsert(ctx, users.UpsertInput{OpenID: "u1"}); err != nil {
		t.Fatal(err)
	}
	first, _ := repo.materialize("u1")

	clock = clock.Add(time.Hour)
	if err := svc.Upsert(ctx, users.UpsertInput{OpenID: "u1"}); err != nil {
		t.Fatal(err)
	}
	second, _ := repo.materialize("u1")

	if len(repo.rows) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(repo.rows))
	}
	if second.LastSignedIn.Before(first.LastSignedIn) {
		t.Fatalf("lastSignedIn went backwards: %v → %v", first.LastSignedIn, second.LastSignedIn)
	}
	if !second.LastSignedIn.After(first.LastSignedIn) {
		t.Fatalf("second write did not touch lastSignedIn: %v", second.LastSignedIn)
	}
}

func TestUpsert_nullLastSignedInDefaultsToNow(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return clock })

	// The column is NOT NULL; a null field must fall back to the clock
	// instead of inserting nil.
	in := users.UpsertInput{OpenID: "u1", LastSignedIn: store.Null[time.Time]()}
	if err := svc.Upsert(ctx, in); err != nil {
		t.Fatal(err)
	}
	u, _ := repo.materialize("u1")
	if !u.LastSignedIn.Equal(clock) {
		t.Fatalf("lastSignedIn = %v, want %v", u.LastSignedIn, clock)
	}
}

func TestUpsert_explicitNullClearsField(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	if err := svc.Upsert(ctx, users.UpsertInput{OpenID: "u1", Name: store.Set("Asha")}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Upsert(ctx, users.UpsertInput{OpenID: "u1", Name: store.Null[string]()}); err != nil {
		t.Fatal(err)
	}
	u, _ := repo.materialize("u1")
	if u.Name != nil {
		t.Fatalf("name = %v, want cleared", *u.Name)
	}
}

func TestUpsert_storageFailurePropagates(t *testing.T) {
	svc, repo := newService(t)
	repo.unavailable = true

	err := svc.Upsert(context.Background(), users.UpsertInput{OpenID: "u1"})
	if !apperr.IsCode(err, apperr.CodeStorageUnavailable) {
		t.Fatalf("identity write must surface StorageUnavailable, got %v", err)
	}
}

// ── Reads degrade ─────────────────────────────────────────────────────────

func TestGetByOpenID_degradesToNotFound(t *testing.T) {
	svc, repo := newService(t)
	repo.unavailable = true

	_, err := svc.GetByOpenID(context.Background(), "u1")
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("read should degrade to NotFound, got %v", err)
	}
}

func TestList_degradesToEmpty(t *testing.T) {
	svc, repo := newService(t)
	repo.unavailable = true

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("read should not error on unavailable storage: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}
