package tasks

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/h2see/eavesdrop/internal/models"
	"github.com/h2see/eavesdrop/internal/shared"
)

// SelectDevice resolves a device hint against the available devices.
//
// An empty hint returns the first device in list order. A hint is
// matched by exact id first, then by case-insensitive name; an
// unmatched hint logs a warning and falls back to the first device.
// Only an empty device list is an error.
func SelectDevice(devices []models.Device, hint string, logger *log.Logger) (string, error) {
	if len(devices) == 0 {
		return "", shared.ErrNoDevice
	}

	if hint == "" {
		return devices[0].ID, nil
	}

	for _, d := range devices {
		if d.ID == hint {
			return d.ID, nil
		}
	}

	for _, d := range devices {
		if strings.EqualFold(d.Name, hint) {
			return d.ID, nil
		}
	}

	if logger != nil {
		logger.Warn("no device matching hint, using first available", "hint", hint, "fallback", devices[0].Name)
	}

	return devices[0].ID, nil
}
