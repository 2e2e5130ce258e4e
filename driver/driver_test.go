package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/forensant/artemis/config"
)

func TestRunDispatchesRegisteredCollector(t *testing.T) {
	Register("test-ok", nil, func(ctx context.Context, opts map[string]string) ([]interface{}, error) {
		return []interface{}{"one", "two"}, nil
	})

	cfg := config.CollectionConfig{Artifacts: []config.ArtifactConfig{{Name: "test-ok"}}}
	statuses := Run(context.Background(), cfg, nil, nil, 0)
	if len(statuses) != 1 {
		t.Fatalf("got %d statuses, want 1", len(statuses))
	}
	if statuses[0].Outcome != OutcomeSuccess || statuses[0].Records != 2 {
		t.Errorf("status = %+v", statuses[0])
	}
}

func TestRunUnknownArtifactReportsError(t *testing.T) {
	cfg := config.CollectionConfig{Artifacts: []config.ArtifactConfig{{Name: "does-not-exist"}}}
	statuses := Run(context.Background(), cfg, nil, nil, 0)
	if statuses[0].Outcome != OutcomeError {
		t.Errorf("Outcome = %v, want Error", statuses[0].Outcome)
	}
}

func TestRunUnsupportedPlatformSkips(t *testing.T) {
	Register("test-other-platform", []string{"plan9"}, func(ctx context.Context, opts map[string]string) ([]interface{}, error) {
		return nil, nil
	})
	cfg := config.CollectionConfig{Artifacts: []config.ArtifactConfig{{Name: "test-other-platform"}}}
	statuses := Run(context.Background(), cfg, nil, nil, 0)
	if statuses[0].Outcome != OutcomeSkipped {
		t.Errorf("Outcome = %v, want Skipped", statuses[0].Outcome)
	}
}

func TestRunCollectorErrorReportsError(t *testing.T) {
	Register("test-fail", nil, func(ctx context.Context, opts map[string]string) ([]interface{}, error) {
		return nil, errors.New("boom")
	})
	cfg := config.CollectionConfig{Artifacts: []config.ArtifactConfig{{Name: "test-fail"}}}
	statuses := Run(context.Background(), cfg, nil, nil, 0)
	if statuses[0].Outcome != OutcomeError || statuses[0].Reason != "boom" {
		t.Errorf("status = %+v", statuses[0])
	}
}

func TestRunDeadlineMarksTimeout(t *testing.T) {
	Register("test-slow", nil, func(ctx context.Context, opts map[string]string) ([]interface{}, error) {
		<-ctx.Done()
		return []interface{}{"partial"}, nil
	})
	cfg := config.CollectionConfig{Artifacts: []config.ArtifactConfig{{Name: "test-slow"}}}
	statuses := Run(context.Background(), cfg, nil, nil, 10*time.Millisecond)
	if statuses[0].Outcome != OutcomeTimeout {
		t.Errorf("Outcome = %v, want Timeout", statuses[0].Outcome)
	}
	if statuses[0].Records != 1 {
		t.Errorf("Records = %d, want 1 (partial results kept)", statuses[0].Records)
	}
}
