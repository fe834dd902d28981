package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meddispense/m/domain"
	"meddispense/m/internal/database"
	"meddispense/m/internal/migrations"
	"meddispense/m/internal/store"
)

func TestListSendsAPIKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(APIKeyHeader) != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Path != "/api/medications" || r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode([]domain.MedicationSlot{
			{BoxID: 1, MedicationName: "MED 1", TotalPills: 30, PillsPerIntake: 2, ScheduleTime1: "08:30:00"},
		})
	}))
	defer ts.Close()

	c := New(ts.URL, "secret", time.Second)
	slots, err := c.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 1 || slots[0].BoxID != 1 || slots[0].TotalPills != 30 {
		t.Fatalf("slots = %+v", slots)
	}

	bad := New(ts.URL, "wrong", time.Second)
	if _, err := bad.List(context.Background()); err == nil {
		t.Fatal("expected error for rejected key")
	}
}

func TestReportDispensePayload(t *testing.T) {
	var got dispenseReport
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/dispense" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := New(ts.URL, "secret", time.Second)
	err := c.ReportDispense(context.Background(), domain.DispenseEvent{
		BoxID: 2, PillsRequested: 3, PillsDispensed: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	// The report carries the actual count, not the requested one.
	if got.BoxID != 2 || got.Dispensed != 2 {
		t.Fatalf("report = %+v, want box 2 dispensed 2", got)
	}
}

func TestQueuedReporterQueuesAndDrains(t *testing.T) {
	db := database.Connect(":memory:")
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)
	local := store.New(db)

	healthy := false
	received := []dispenseReport{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var report dispenseReport
		_ = json.NewDecoder(r.Body).Decode(&report)
		received = append(received, report)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	q := &QueuedReporter{Client: New(ts.URL, "secret", time.Second), Store: local}

	event := domain.DispenseEvent{EventID: "ev-1", BoxID: 1, PillsDispensed: 2}
	if err := q.ReportDispense(context.Background(), event); err == nil {
		t.Fatal("expected report failure while tracker is down")
	}
	if n, _ := local.PendingReportCount(); n != 1 {
		t.Fatalf("pending = %d, want 1", n)
	}

	// Tracker recovers: the next report drains the queue first.
	healthy = true
	next := domain.DispenseEvent{EventID: "ev-2", BoxID: 2, PillsDispensed: 1}
	if err := q.ReportDispense(context.Background(), next); err != nil {
		t.Fatal(err)
	}
	if n, _ := local.PendingReportCount(); n != 0 {
		t.Fatalf("pending after drain = %d, want 0", n)
	}
	if len(received) != 2 || received[0].BoxID != 1 || received[1].BoxID != 2 {
		t.Fatalf("received order = %+v, want queued report first", received)
	}
}
