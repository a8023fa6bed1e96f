package store_test

import (
	"testing"

	"github.com/agrilink/agrilink/internal/store"
)

func TestField_absentByDefault(t *testing.T) {
	var f store.Field[string]
	if f.IsSet() {
		t.Error("zero Field should be absent")
	}
	if f.IsNull() {
		t.Error("zero Field should not be null")
	}
}

func TestField_set(t *testing.T) {
	f := store.Set("Green Acres")
	if !f.IsSet() || f.IsNull() {
		t.Fatalf("Set: IsSet=%v IsNull=%v", f.IsSet(), f.IsNull())
	}
	if f.Value() != "Green Acres" {
		t.Errorf("Value = %q", f.Value())
	}
	if f.Arg() != "Green Acres" {
		t.Errorf("Arg = %v", f.Arg())
	}
}

func TestField_null(t *testing.T) {
	f := store.Null[string]()
	if !f.IsSet() || !f.IsNull() {
		t.Fatalf("Null: IsSet=%v IsNull=%v", f.IsSet(), f.IsNull())
	}
	if f.Arg() != nil {
		t.Errorf("Arg = %v, want nil", f.Arg())
	}
}
