package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is one user-facing notification.
type Record struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title,omitempty"`
	Message        string    `json:"message"`
	Type           string    `json:"type,omitempty"`
	Read           bool      `json:"read"`
	CreatedAt      Timestamp `json:"createdAt"`
	TimeAgo        string    `json:"timeAgo,omitempty"`
	RecipientEmail string    `json:"recipientEmail,omitempty"`
	SourceID       *int64    `json:"sourceId,omitempty"`
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r.SourceID != nil {
		id := *r.SourceID
		r.SourceID = &id
	}
	return r
}

// withDefaults fills the creation time and the derived title.
func (r Record) withDefaults(now time.Time) Record {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = Timestamp{Time: now}
	}
	if strings.TrimSpace(r.Title) == "" {
		r.Title = TitleFor(r.Type)
	}
	return r
}

// TitleFor derives a display title from a notification type.
func TitleFor(typ string) string {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "error":
		return "Error"
	case "warning", "warn":
		return "Warning"
	case "success":
		return "Success"
	default:
		return "Information"
	}
}

// PlaceholderID is the id given to locally originated records before the
// backend assigns one.
func PlaceholderID(now time.Time) int64 {
	return now.UnixMilli()
}

// DecodeRecord parses a frame body.
func DecodeRecord(body []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(body, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return r, nil
}

// Timestamp is a creation time that decodes from RFC 3339 strings, ISO local
// date-times without a zone, and epoch milliseconds.
type Timestamp struct {
	time.Time
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] != '"' {
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidTimestamp, data)
		}
		t.Time = time.UnixMilli(ms)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTimestamp, err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseTimestamp parses s in any of the accepted formats. Zone-less values
// are read in local time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	for _, layout := range localLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
