package journal

import (
	"encoding/json"
	"time"
)

// TimestampFormat is the time format used for record timestamps.
const TimestampFormat = time.RFC3339Nano

// recordJSON is the wire form of a Record. Optional fields are pointers so
// empty values are omitted.
type recordJSON struct {
	Timestamp       string            `json:"timestamp"`
	RunID           RunID             `json:"runId,omitempty"`
	EventType       EventType         `json:"eventType"`
	Status          Status            `json:"status"`
	Trigger         *string           `json:"trigger,omitempty"`
	SourcePath      *string           `json:"sourcePath,omitempty"`
	DestinationPath *string           `json:"destinationPath,omitempty"`
	Reason          *string           `json:"reason,omitempty"`
	Attempts        int               `json:"attempts,omitempty"`
	Error           *string           `json:"error,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// MarshalJSON implements json.Marshaler for Record.
func (r Record) MarshalJSON() ([]byte, error) {
	rj := recordJSON{
		Timestamp: r.Timestamp.UTC().Format(TimestampFormat),
		RunID:     r.RunID,
		EventType: r.EventType,
		Status:    r.Status,
		Attempts:  r.Attempts,
		Metadata:  r.Metadata,
	}
	rj.Trigger = optional(r.Trigger)
	rj.SourcePath = optional(r.SourcePath)
	rj.DestinationPath = optional(r.DestinationPath)
	rj.Reason = optional(r.Reason)
	rj.Error = optional(r.Error)
	return json.Marshal(rj)
}

// UnmarshalJSON implements json.Unmarshaler for Record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var rj recordJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return err
	}

	t, err := time.Parse(TimestampFormat, rj.Timestamp)
	if err != nil {
		return err
	}

	*r = Record{
		Timestamp: t,
		RunID:     rj.RunID,
		EventType: rj.EventType,
		Status:    rj.Status,
		Attempts:  rj.Attempts,
		Metadata:  rj.Metadata,
	}
	r.Trigger = deref(rj.Trigger)
	r.SourcePath = deref(rj.SourcePath)
	r.DestinationPath = deref(rj.DestinationPath)
	r.Reason = deref(rj.Reason)
	r.Error = deref(rj.Error)
	return nil
}

// ParseLine unmarshals one JSON line into a Record.
func ParseLine(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
