package natsadapter

import (
	"testing"
	"time"

	"github.com/samirrijal/clinicmap/internal/core/domain"
)

func TestClinicSubject(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"abc123", "clinics.published.abc123"},
		{"a.b", "clinics.published.a_b"},
		{"x y*>", "clinics.published.x_y__"},
	}
	for _, tt := range tests {
		if got := ClinicSubject(tt.id); got != tt.want {
			t.Errorf("ClinicSubject(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestDecodeClinicEvent(t *testing.T) {
	c, err := decodeClinicEvent("clinics.published.c1", []byte(`{"id":"c1","name":"Smile"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID != "c1" || c.Name != "Smile" {
		t.Errorf("unexpected clinic %+v", c)
	}

	c, err = decodeClinicEvent("clinics.published.c2", []byte(`{"name":"No ID"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID != "c2" {
		t.Errorf("expected id from subject, got %q", c.ID)
	}

	if _, err := decodeClinicEvent("clinics.published.c3", []byte(`not json`)); err == nil {
		t.Error("expected error for malformed payload")
	}
	if _, err := decodeClinicEvent("other.subject", []byte(`{}`)); err == nil {
		t.Error("expected error when no id is available")
	}
}

func TestEventID(t *testing.T) {
	c := &domain.Clinic{ID: "c1"}
	if got := eventID(c); got != "c1" {
		t.Errorf("eventID without UpdatedAt = %q", got)
	}
	c.UpdatedAt = time.Unix(0, 42)
	if got := eventID(c); got != "c1@42" {
		t.Errorf("eventID = %q, want c1@42", got)
	}
}
