package domain

import "time"

// ConfigEntry is a row of the editable key/value system configuration.
type ConfigEntry struct {
	Key       string
	Value     string
	UpdatedBy *string
	UpdatedAt time.Time
}
