package repository

import "time"

func nowUTC() time.Time {
	return time.Now().UTC()
}

// Timestamps are persisted as RFC3339Nano text so sqlite rows stay
// readable in place.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTimePtr(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	t := parseTime(*raw)
	return &t
}
