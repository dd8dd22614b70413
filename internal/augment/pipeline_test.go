package augment

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kje0316/persona-signal-welfare/internal/domain"
)

func writeTestCSV(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "input.csv")
	content := "region,age,income\nseoul,34,2400\nseoul,29,1900\nbusan,67,1100\ndaegu,45,3100\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test CSV: %v", err)
	}
	return path
}

func TestPipelineRunProducesOutputs(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	dir := t.TempDir()

	task, err := mgr.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pipe := NewPipeline(mgr, dir, false, 0)
	input := writeTestCSV(t, dir)

	if err := pipe.run(ctx, task.ID, input, nil, Config{TargetSamples: 10}); err != nil {
		t.Fatalf("Pipeline run failed: %v", err)
	}

	got, err := mgr.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != domain.TaskCompleted {
		t.Fatalf("Status = %q, want completed", got.Status)
	}
	if got.Results["clusters_found"] != 3 {
		t.Errorf("clusters_found = %v, want 3", got.Results["clusters_found"])
	}
	if got.Results["data_augmented"] != 10 {
		t.Errorf("data_augmented = %v, want 10", got.Results["data_augmented"])
	}

	// Augmented CSV: header + target samples rows, rows cycled from source.
	f, err := os.Open(got.OutputFiles["augmented_data"])
	if err != nil {
		t.Fatalf("Failed to open augmented data: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse augmented data: %v", err)
	}
	if len(records) != 11 {
		t.Errorf("Augmented data has %d records, want 11", len(records))
	}

	// Personas: one per cluster, largest first.
	data, err := os.ReadFile(got.OutputFiles["personas"])
	if err != nil {
		t.Fatalf("Failed to read personas: %v", err)
	}
	var personas []map[string]any
	if err := json.Unmarshal(data, &personas); err != nil {
		t.Fatalf("Failed to decode personas: %v", err)
	}
	if len(personas) != 3 {
		t.Fatalf("Generated %d personas, want 3", len(personas))
	}
	if personas[0]["cluster_key"] != "seoul" {
		t.Errorf("Largest cluster = %v, want seoul", personas[0]["cluster_key"])
	}

	if _, err := os.Stat(got.OutputFiles["evaluation_report"]); err != nil {
		t.Errorf("Evaluation report missing: %v", err)
	}
}

func TestPipelineSimulateMode(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	dir := t.TempDir()

	task, err := mgr.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pipe := NewPipeline(mgr, dir, true, time.Millisecond)
	if err := pipe.run(ctx, task.ID, "", nil, Config{}); err != nil {
		t.Fatalf("Simulated run failed: %v", err)
	}

	got, err := mgr.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != domain.TaskCompleted {
		t.Fatalf("Status = %q, want completed", got.Status)
	}
	if got.Results["data_augmented"] != defaultTargetSamples {
		t.Errorf("data_augmented = %v, want %d", got.Results["data_augmented"], defaultTargetSamples)
	}
	for _, fileType := range []string{"personas", "augmented_data", "evaluation_report"} {
		if _, err := os.Stat(got.OutputFiles[fileType]); err != nil {
			t.Errorf("Simulated output %s missing: %v", fileType, err)
		}
	}
}

func TestPipelineCancellationStopsRun(t *testing.T) {
	mgr := newTestManager(t)
	dir := t.TempDir()

	task, err := mgr.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pipe := NewPipeline(mgr, dir, true, time.Millisecond)
	if err := pipe.run(ctx, task.ID, "", nil, Config{}); err == nil {
		t.Error("Cancelled run did not return an error")
	}

	got, err := mgr.Get(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status == domain.TaskCompleted {
		t.Error("Cancelled run still completed")
	}
}
