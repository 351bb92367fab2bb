package metrics

import (
	"errors"
	"testing"
	"time"
)

type recordedCall struct {
	name   string
	value  float64
	labels Labels
}

// captureBackend records every call for inspection.
type captureBackend struct {
	counters  []recordedCall
	durations []recordedCall
	flushed   int
}

func (c *captureBackend) IncCounter(name string, delta float64, labels Labels) {
	c.counters = append(c.counters, recordedCall{name, delta, labels})
}

func (c *captureBackend) ObserveDuration(name string, value float64, labels Labels) {
	c.durations = append(c.durations, recordedCall{name, value, labels})
}

func (c *captureBackend) Flush() error {
	c.flushed++
	return nil
}

func install(t *testing.T) *captureBackend {
	t.Helper()
	b := &captureBackend{}
	SetBackend(b)
	t.Cleanup(func() { SetBackend(nopBackend{}) })
	return b
}

/*
TestRecordStep verifies the step counter and duration share labels and that
an error flips the status label to failure.
*/
func TestRecordStep(t *testing.T) {
	b := install(t)

	RecordStep("survey_load", "transform", nil, 250*time.Millisecond)
	RecordStep("survey_load", "load", errors.New("boom"), time.Second)

	if len(b.counters) != 2 || len(b.durations) != 2 {
		t.Fatalf("counters = %d durations = %d, want 2 each", len(b.counters), len(b.durations))
	}
	ok := b.counters[0]
	if ok.name != "survey_step_total" || ok.labels["status"] != "success" || ok.labels["step"] != "transform" {
		t.Fatalf("success call = %+v", ok)
	}
	failed := b.counters[1]
	if failed.labels["status"] != "failure" || failed.labels["step"] != "load" {
		t.Fatalf("failure call = %+v", failed)
	}
	if b.durations[0].value != 0.25 {
		t.Fatalf("duration = %v seconds, want 0.25", b.durations[0].value)
	}
}

/*
TestRecordRow verifies kind labels and that zero and negative deltas are
dropped.
*/
func TestRecordRow(t *testing.T) {
	b := install(t)

	RecordRow("survey_load", "inserted", 5)
	RecordRow("survey_load", "updated", 0)
	RecordRow("survey_load", "row_errors", -1)

	if len(b.counters) != 1 {
		t.Fatalf("counters = %d, want only the positive delta", len(b.counters))
	}
	got := b.counters[0]
	if got.name != "survey_rows_total" || got.value != 5 || got.labels["kind"] != "inserted" {
		t.Fatalf("call = %+v", got)
	}
}

func TestRecordBatches(t *testing.T) {
	b := install(t)

	RecordBatches("survey_load", 3)
	RecordBatches("survey_load", 0)

	if len(b.counters) != 1 || b.counters[0].value != 3 {
		t.Fatalf("counters = %+v", b.counters)
	}
	if b.counters[0].name != "survey_batches_total" {
		t.Fatalf("name = %q", b.counters[0].name)
	}
}

func TestSetBackendNilKeepsCurrent(t *testing.T) {
	b := install(t)

	SetBackend(nil)
	RecordBatches("survey_load", 1)

	if len(b.counters) != 1 {
		t.Fatal("nil backend should not replace the installed one")
	}
}

func TestFlushDelegates(t *testing.T) {
	b := install(t)
	if err := Flush(); err != nil {
		t.Fatal(err)
	}
	if b.flushed != 1 {
		t.Fatalf("flushed = %d, want 1", b.flushed)
	}
}
