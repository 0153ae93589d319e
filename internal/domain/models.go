package domain

import (
	"fmt"
	"time"
)

// Alert is a record of an anomalous condition reported by an external
// source system. AcknowledgedBy and AcknowledgedAtMillis are set together.
type Alert struct {
	ID                   string  `json:"id"`
	OriginalID           string  `json:"original_id"`
	Category             string  `json:"category"`
	CreatedAtMillis      int64   `json:"unix_millis_created_time"`
	AcknowledgedBy       *string `json:"acknowledged_by"`
	AcknowledgedAtMillis *int64  `json:"unix_millis_acknowledged_time"`
}

// Acknowledged reports whether both acknowledgement fields are set.
func (a *Alert) Acknowledged() bool {
	return a.AcknowledgedBy != nil && a.AcknowledgedAtMillis != nil
}

// Acknowledge stamps the acting user and time onto the alert.
func (a *Alert) Acknowledge(user string, atMillis int64) {
	u, ms := user, atMillis
	a.AcknowledgedBy = &u
	a.AcknowledgedAtMillis = &ms
}

// Clone returns a deep copy so callers can't mutate stored pointers.
func (a Alert) Clone() Alert {
	if a.AcknowledgedBy != nil {
		v := *a.AcknowledgedBy
		a.AcknowledgedBy = &v
	}
	if a.AcknowledgedAtMillis != nil {
		v := *a.AcknowledgedAtMillis
		a.AcknowledgedAtMillis = &v
	}
	return a
}

// Acknowledgement is one Task Log entry: who acknowledged which task, and when.
type Acknowledgement struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	User       string    `json:"user"`
	AckMillis  int64     `json:"unix_millis_acknowledged_time"`
	RecordedAt time.Time `json:"recorded_at"`
}

// UnixMillis converts t to Unix epoch milliseconds.
func UnixMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// SyntheticID is the id given to a record created by acknowledging an
// alert that was never stored.
func SyntheticID(id string, ackMillis int64) string {
	return fmt.Sprintf("%s__%d", id, ackMillis)
}
