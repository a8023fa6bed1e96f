package profiles_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/profiles"
	"github.com/agrilink/agrilink/internal/store"
)

// ── Stub repo ─────────────────────────────────────────────────────────────

type stubRepo struct {
	farmers     map[int64]map[string]any
	experts     map[int64]map[string]any
	unavailable bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		farmers: make(map[int64]map[string]any),
		experts: make(map[int64]map[string]any),
	}
}

func merge(rows map[int64]map[string]any, userID int64, set map[string]any) {
	row, ok := rows[userID]
	if !ok {
		row = map[string]any{}
		rows[userID] = row
	}
	for k, v := range set {
		row[k] = v
	}
}

func (r *stubRepo) UpsertFarmer(_ context.Context, userID int64, set map[string]any) error {
	if r.unavailable {
		return apperr.New(apperr.CodeStorageUnavailable, "upsert farmer_profiles")
	}
	merge(r.farmers, userID, set)
	return nil
}

func (r *stubRepo) UpsertExpert(_ context.Context, userID int64, set map[string]any) error {
	if r.unavailable {
		return apperr.New(apperr.CodeStorageUnavailable, "upsert expert_profiles")
	}
	merge(r.experts, userID, set)
	return nil
}

func strField(row map[string]any, col string) *string {
	v, ok := row[col]
	if !ok || v == nil {
		return nil
	}
	s := v.(string)
	return &s
}

func (r *stubRepo) GetFarmer(_ context.Context, userID int64) (*profiles.FarmerProfile, error) {
	if r.unavailable {
		return nil, apperr.New(apperr.CodeStorageUnavailable, "get farmer profile")
	}
	row, ok := r.farmers[userID]
	if !ok {
		return nil, profiles.ErrNotFound
	}
	return &profiles.FarmerProfile{
		UserID:   userID,
		FarmName: strField(row, "farm_name"),
		Location: strField(row, "location"),
		Phone:    strField(row, "phone"),
	}, nil
}

func (r *stubRepo) GetExpert(_ context.Context, userID int64) (*profiles.ExpertProfile, error) {
	if r.unavailable {
		return nil, apperr.New(apperr.CodeStorageUnavailable, "get expert profile")
	}
	row, ok := r.experts[userID]
	if !ok {
		return nil, profiles.ErrNotFound
	}
	p := &profiles.ExpertProfile{
		UserID:             userID,
		Specialization:     strField(row, "specialization"),
		VerificationStatus: profiles.VerificationPending,
	}
	if v, ok := row["verification_status"].(profiles.VerificationStatus); ok {
		p.VerificationStatus = v
	}
	return p, nil
}

func (r *stubRepo) SetExpertVerification(_ context.Context, userID int64, status profiles.VerificationStatus) error {
	row, ok := r.experts[userID]
	if !ok {
		return profiles.ErrNotFound
	}
	row["verification_status"] = status
	return nil
}

func newService(t *testing.T) (*profiles.Service, *stubRepo) {
	t.Helper()
	repo := newStubRepo()
	return profiles.NewService(repo, zap.NewNop()), repo
}

// ── Tests ─────────────────────────────────────────────────────────────────

func TestUpdateFarmer_partialWritesAccumulate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if err := svc.UpdateFarmer(ctx, 7, profiles.FarmerUpdate{FarmName: store.Set("Green Acres")}); err != nil {
		t.Fatal(err)
	}
	if err := svc.UpdateFarmer(ctx, 7, profiles.FarmerUpdate{Location: store.Set("Nashik")}); err != nil {
		t.Fatal(err)
	}

	p, err := svc.GetFarmer(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if p.FarmName == nil || *p.FarmName != "Green Acres" {
		t.Errorf("farmName lost by second partial write: %v", p.FarmName)
	}
	if p.Location == nil || *p.Location != "Nashik" {
		t.Errorf("location not merged: %v", p.Location)
	}
	if p.Phone != nil {
		t.Errorf("phone should be unset, got %q", *p.Phone)
	}
}

func TestUpdateFarmer_missingKeyRejected(t *testing.T) {
	svc, _ := newService(t)

	err := svc.UpdateFarmer(context.Background(), 0, profiles.FarmerUpdate{})
	if !apperr.IsCode(err, apperr.CodeInvalidKey) {
		t.Fatalf("expected InvalidKey, got %v", err)
	}
}

func TestUpdateExpert_merge(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	upd := profiles.ExpertUpdate{
		Specialization:    store.Set("soil science"),
		YearsOfExperience: store.Set(12),
	}
	if err := svc.UpdateExpert(ctx, 9, upd); err != nil {
		t.Fatal(err)
	}

	p, err := svc.GetExpert(ctx, 9)
	if err != nil {
		t.Fatal(err)
	}
	if p.Specialization == nil || *p.Specialization != "soil science" {
		t.Errorf("specialization = %v", p.Specialization)
	}
	if p.VerificationStatus != profiles.VerificationPending {
		t.Errorf("new expert profile should default to pending, got %q", p.VerificationStatus)
	}
}

func TestSetExpertVerification(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	if err := svc.SetExpertVerification(ctx, 9, profiles.VerificationVerified); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected NotFound for missing profile, got %v", err)
	}

	repo.experts[9] = map[string]any{}
	if err := svc.SetExpertVerification(ctx, 9, profiles.VerificationVerified); err != nil {
		t.Fatal(err)
	}
	p, _ := svc.GetExpert(ctx, 9)
	if p.VerificationStatus != profiles.VerificationVerified {
		t.Fatalf("status = %q, want verified", p.VerificationStatus)
	}
}

func TestGetFarmer_degradesToNotFound(t *testing.T) {
	svc, repo := newService(t)
	repo.unavailable = true

	_, err := svc.GetFarmer(context.Background(), 7)
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("read should degrade to NotFound, got %v", err)
	}
}
