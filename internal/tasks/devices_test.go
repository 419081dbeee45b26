package tasks

import (
	"errors"
	"testing"

	"github.com/h2see/eavesdrop/internal/models"
	"github.com/h2see/eavesdrop/internal/shared"
)

func TestSelectDevice(t *testing.T) {
	devices := []models.Device{
		{ID: "id-1", Name: "Desk Speaker"},
		{ID: "id-2", Name: "Phone"},
		{ID: "id-3", Name: "desk speaker"},
	}

	t.Run("empty list is an error", func(t *testing.T) {
		if _, err := SelectDevice(nil, "", nil); !errors.Is(err, shared.ErrNoDevice) {
			t.Errorf("expected ErrNoDevice, got %v", err)
		}
	})

	t.Run("empty hint returns the first device", func(t *testing.T) {
		id, err := SelectDevice(devices, "", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "id-1" {
			t.Errorf("expected id-1, got %s", id)
		}
	})

	t.Run("exact id match wins over name match", func(t *testing.T) {
		id, err := SelectDevice(devices, "id-2", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "id-2" {
			t.Errorf("expected id-2, got %s", id)
		}
	})

	t.Run("name match is case-insensitive", func(t *testing.T) {
		id, err := SelectDevice(devices, "PHONE", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "id-2" {
			t.Errorf("expected id-2, got %s", id)
		}
	})

	t.Run("duplicate names resolve to the first in list order", func(t *testing.T) {
		id, err := SelectDevice(devices, "DESK SPEAKER", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "id-1" {
			t.Errorf("expected id-1, got %s", id)
		}
	})

	t.Run("unmatched hint falls back to the first device", func(t *testing.T) {
		id, err := SelectDevice(devices, "garage", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "id-1" {
			t.Errorf("expected id-1, got %s", id)
		}
	})

	t.Run("selection is deterministic", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			id, err := SelectDevice(devices, "Phone", nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != "id-2" {
				t.Fatalf("expected id-2, got %s", id)
			}
		}
	})
}
