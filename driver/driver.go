// Package driver is the engine's L3 collection driver: given a
// decoded config.CollectionConfig, it walks the artifact list in
// order, dispatches each to the matching registered collector, and
// feeds the resulting record stream into the output pipeline,
// accumulating a per-artifact status log. Grounded on the teacher's
// ingest/muxer.go ("build the pipeline, hand records to it, track
// state") and collectd/main.go's top-level "load config, build
// targets, run collectors, report" shape.
package driver

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/forensant/artemis/artlog"
	"github.com/forensant/artemis/config"
	"github.com/forensant/artemis/output"
)

// Outcome is one artifact's terminal state in the status log.
type Outcome string

const (
	OutcomeSuccess Outcome = "Success"
	OutcomeSkipped Outcome = "Skipped" // unsupported on this platform
	OutcomeError   Outcome = "Error"
	OutcomeTimeout Outcome = "Timeout"
)

// StatusEntry is one line of the run's status log (spec §4.3 step 4:
// "Accumulate per-artifact results into a status log (name,
// success/failure, reason)").
type StatusEntry struct {
	Name    string
	Outcome Outcome
	Reason  string
	Records int
}

func (s StatusEntry) String() string {
	if s.Reason == "" {
		return fmt.Sprintf("%s\t%s\trecords=%d", s.Name, s.Outcome, s.Records)
	}
	return fmt.Sprintf("%s\t%s\trecords=%d\t%s", s.Name, s.Outcome, s.Records, s.Reason)
}

// Collector is a registered artifact's implementation: given the
// artifact's option bag, it returns the records to submit to the
// output pipeline. Implementations must honor ctx and return what
// they have so far (with a nil error) if ctx is canceled mid-run, per
// spec §5's cooperative-deadline contract.
type Collector func(ctx context.Context, opts map[string]string) ([]interface{}, error)

// entryT is one dispatch-table row: a collector plus the platforms
// (runtime.GOOS values) it supports. A nil/empty platforms list means
// every platform.
type entryT struct {
	fn        Collector
	platforms []string
}

var (
	registryMu sync.Mutex
	registry   = map[string]entryT{}
)

// Register adds name to the dispatch table. Called from each parser
// package's init (or explicitly by cmd/artemis) so the driver never
// needs a compile-time import of every parser package directly.
func Register(name string, platforms []string, fn Collector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = entryT{fn: fn, platforms: platforms}
}

// Lookup returns the registered collector for name, if any and if it
// supports the current platform.
func Lookup(name string) (Collector, bool) {
	registryMu.Lock()
	e, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, false
	}
	if !supportsPlatform(e.platforms) {
		return nil, false
	}
	return e.fn, true
}

// Supported reports whether name is registered at all (regardless of
// platform), used to distinguish "unknown artifact" from "known but
// unsupported here" in status-log reasons.
func Supported(name string) bool {
	registryMu.Lock()
	_, ok := registry[name]
	registryMu.Unlock()
	return ok
}

func supportsPlatform(platforms []string) bool {
	if len(platforms) == 0 {
		return true
	}
	for _, p := range platforms {
		if p == runtime.GOOS {
			return true
		}
	}
	return false
}

// Run executes one collection: every configured artifact is
// dispatched in order to its registered collector, the resulting
// records are pushed into pipeline, and a StatusEntry is recorded for
// each (spec §4.3). deadline, if non-zero, bounds each artifact's
// collection time individually -- per spec §5, "the currently running
// parser is asked to stop at the next record boundary"; honoring that
// is the collector's job, Run only supplies the context.
func Run(ctx context.Context, cfg config.CollectionConfig, pipeline *output.Pipeline, lg *artlog.Logger, deadline time.Duration) []StatusEntry {
	if lg == nil {
		lg = artlog.NewDiscard()
	}
	var statuses []StatusEntry

	for _, a := range cfg.Artifacts {
		entry := runOne(ctx, a, pipeline, lg, deadline)
		statuses = append(statuses, entry)
	}
	return statuses
}

func runOne(ctx context.Context, a config.ArtifactConfig, pipeline *output.Pipeline, lg *artlog.Logger, deadline time.Duration) StatusEntry {
	fn, ok := Lookup(a.Name)
	if !ok {
		if Supported(a.Name) {
			lg.Warnf("artifact %q unsupported on %s, skipping", a.Name, runtime.GOOS)
			return StatusEntry{Name: a.Name, Outcome: OutcomeSkipped, Reason: "unsupported on " + runtime.GOOS}
		}
		lg.Errorf("artifact %q is not a known parser", a.Name)
		return StatusEntry{Name: a.Name, Outcome: OutcomeError, Reason: "unknown artifact"}
	}

	start := time.Now()
	runCtx := ctx
	var cancel context.CancelFunc
	if deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	records, err := fn(runCtx, a.Options)
	if err != nil {
		lg.Errorf("artifact %q failed: %v", a.Name, err)
		return StatusEntry{Name: a.Name, Outcome: OutcomeError, Reason: err.Error(), Records: len(records)}
	}

	outcome := OutcomeSuccess
	reason := ""
	if runCtx.Err() != nil {
		outcome = OutcomeTimeout
		reason = "deadline exceeded"
		lg.Warnf("artifact %q hit its deadline after %v, %d records collected", a.Name, time.Since(start), len(records))
	}

	if pipeline != nil {
		if err := pipeline.Submit(a.Name, records, start); err != nil {
			lg.Criticalf("output pipeline failed for artifact %q: %v", a.Name, err)
			return StatusEntry{Name: a.Name, Outcome: OutcomeError, Reason: "output: " + err.Error(), Records: len(records)}
		}
	}

	lg.Infof("artifact %q complete: %d records in %v", a.Name, len(records), time.Since(start))
	return StatusEntry{Name: a.Name, Outcome: outcome, Reason: reason, Records: len(records)}
}
