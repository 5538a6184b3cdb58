package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}

	ctx := context.Background()
	rec.Observe(ctx, "create_recipe", true, 25*time.Millisecond)
	rec.Observe(ctx, "create_recipe", false, 5*time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond) // ignored

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := map[string]bool{}
	for _, fam := range families {
		byName[fam.GetName()] = true
	}
	if !byName["almanac_service_operation_duration_seconds"] {
		t.Fatal("missing duration histogram")
	}
	if !byName["almanac_service_operation_results_total"] {
		t.Fatal("missing results counter")
	}

	for _, fam := range families {
		if fam.GetName() != "almanac_service_operation_results_total" {
			continue
		}
		var total float64
		for _, m := range fam.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		if total != 2 {
			t.Fatalf("counter total = %v, want 2", total)
		}
	}

	// registering twice on the same registry must fail
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if rec.Name() == "" {
		t.Fatal("expected generated name")
	}

	ctx := context.Background()
	rec.Observe(ctx, "fork_recipe", true, 10*time.Millisecond)
	rec.Observe(ctx, "fork_recipe", true, 20*time.Millisecond)
	rec.Observe(ctx, "fork_recipe", false, 5*time.Millisecond)

	snap := rec.Snapshot()
	if got := snap.Results["fork_recipe"]["success"]; got != 2 {
		t.Fatalf("success = %d, want 2", got)
	}
	if got := snap.Results["fork_recipe"]["error"]; got != 1 {
		t.Fatalf("error = %d, want 1", got)
	}
	if got := snap.DurationsMS["fork_recipe"]; got < 34 || got > 36 {
		t.Fatalf("duration total = %v, want ~35", got)
	}
}

func TestJSONTracerEmitsLines(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)

	_, span := tracer.Start(context.Background(), "render_recipe")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "render_recipe")
	span.End(errors.New("missing"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[1].Error != "missing" || entries[1].Status != "error" {
		t.Fatalf("error entry = %+v", entries[1])
	}

	dec := json.NewDecoder(&buf)
	var decoded JSONTraceEntry
	if err := dec.Decode(&decoded); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if decoded.Operation != "render_recipe" {
		t.Fatalf("operation = %q", decoded.Operation)
	}
}
