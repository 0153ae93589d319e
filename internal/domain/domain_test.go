package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestAlert_JSONFieldNames(t *testing.T) {
	a := Alert{ID: "A1", OriginalID: "A1", Category: "battery_low", CreatedAtMillis: 1700000000000}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, key := range []string{
		`"unix_millis_created_time":1700000000000`,
		`"acknowledged_by":null`,
		`"unix_millis_acknowledged_time":null`,
	} {
		if !strings.Contains(s, key) {
			t.Fatalf("expected %s in %s", key, s)
		}
	}
}

func TestAlert_AcknowledgeSetsBothFields(t *testing.T) {
	var a Alert
	if a.Acknowledged() {
		t.Fatalf("zero alert should not be acknowledged")
	}
	a.Acknowledge("alice", 42)
	if !a.Acknowledged() || *a.AcknowledgedBy != "alice" || *a.AcknowledgedAtMillis != 42 {
		t.Fatalf("unexpected ack state: %+v", a)
	}
	a.AcknowledgedAtMillis = nil
	if a.Acknowledged() {
		t.Fatalf("half-set pair must not count as acknowledged: %+v", a)
	}
}

func TestAlert_CloneIsDeep(t *testing.T) {
	var a Alert
	a.Acknowledge("alice", 1)
	c := a.Clone()
	*c.AcknowledgedBy = "bob"
	if *a.AcknowledgedBy != "alice" {
		t.Fatalf("clone shares pointer with original")
	}
}

func TestSyntheticID(t *testing.T) {
	if got := SyntheticID("A1", 1700000000123); got != "A1__1700000000123" {
		t.Fatalf("SyntheticID=%q", got)
	}
}

func TestUnixMillis(t *testing.T) {
	ts := time.Date(2025, 8, 18, 12, 0, 0, 5_000_000, time.UTC)
	if got := UnixMillis(ts); got != ts.Unix()*1000+5 {
		t.Fatalf("UnixMillis=%d", got)
	}
}
