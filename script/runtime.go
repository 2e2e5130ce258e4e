// Package script is the engine's L5 scripting runtime. spec.md §4.5
// describes an "ES2020 subset" JavaScript context; no JS engine
// appears anywhere in the retrieved corpus, so per SPEC_FULL.md's
// resolved Open Question this runtime is built on the teacher's own
// embedded scripting layer instead -- github.com/open2b/scriggo, a
// sandboxed Go-syntax language with the same shape: single-threaded,
// cooperatively scheduled, a curated host-function API, no
// preemption. Grounded on ingest/processors/plugin/plugin.go's
// build/run/recover structure.
package script

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/open2b/scriggo"
	"github.com/open2b/scriggo/native"
)

// HostPackageName is the import name user scripts use to reach the
// host API: `import "artemis"`.
const HostPackageName = "artemis"

var (
	ErrInvalidScript = errors.New("script: empty or invalid program")
	ErrNotBuilt      = errors.New("script: program was not built")
	ErrDeadline      = errors.New("script: deadline exceeded")
)

// Runtime wraps one compiled script program. Scripts are single-shot:
// a fresh Runtime is built per filter invocation or per `--javascript`
// CLI run, matching spec §4.5's "no event loop for user code" model --
// there is no persistent interpreter state carried between submissions
// beyond what the host API exposes explicitly.
type Runtime struct {
	program *scriggo.Program
	host    *Host
}

// New compiles source (a single main package's worth of script text)
// against the host API bound to h.
func New(source []byte, h *Host) (*Runtime, error) {
	if len(source) == 0 {
		return nil, ErrInvalidScript
	}
	if h == nil {
		h = NewHost(nil)
	}
	fsys := scriggo.Files{"main.go": source}
	return build(fsys, h)
}

// NewFromFS compiles a script rooted at fsys (e.g. the teacher's
// pattern of handing a single-file fs.FS for an embedded or on-disk
// script). cmd/artemis's --javascript flag builds its script with New,
// not NewFromFS.
func NewFromFS(fsys fs.FS, h *Host) (*Runtime, error) {
	if h == nil {
		h = NewHost(nil)
	}
	return build(fsys, h)
}

func build(fsys fs.FS, h *Host) (*Runtime, error) {
	opts := &scriggo.BuildOptions{
		Packages: native.Packages{
			HostPackageName: native.Package{
				Name:         HostPackageName,
				Declarations: h.declarations(),
			},
		},
	}
	prgm, err := scriggo.Build(fsys, opts)
	if err != nil {
		return nil, fmt.Errorf("script: build: %w", err)
	}
	return &Runtime{program: prgm, host: h}, nil
}

// Run executes the compiled program to completion, honoring deadline
// as a wall-clock cutoff (spec §4.5 "Cancellation": "the runtime
// throws a Deadline error into the script on the next host-call
// boundary" -- here realized as a context cancellation the Host's
// blocking calls check between operations).
func (r *Runtime) Run(ctx context.Context, deadline time.Duration) error {
	if r.program == nil {
		return ErrNotBuilt
	}
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}
	r.host.ctx = ctx

	opts := &scriggo.RunOptions{Context: ctx}
	if err := r.program.Run(opts); err != nil {
		if ctx.Err() != nil {
			return ErrDeadline
		}
		return fmt.Errorf("script: run: %w", err)
	}
	return nil
}

// RunFilter compiles and runs a filter script (spec §4.4 step 2: a
// `filter_script` handed the current records value plus artifact_name).
// The script reads them through the host's FilterInput and
// FilterArtifactName and sets the replacement records value by calling
// OutputResults; if it never does, the input records are returned. A
// build or run error returns nil records and the error.
func RunFilter(ctx context.Context, source []byte, artifactName string, records []interface{}, deadline time.Duration) ([]interface{}, error) {
	h := NewHost(nil)
	h.FilterArtifact = artifactName
	h.FilterInput = records

	rt, err := New(source, h)
	if err != nil {
		return nil, err
	}
	if err := rt.Run(ctx, deadline); err != nil {
		return nil, err
	}
	if h.FilterOutput != nil {
		return h.FilterOutput, nil
	}
	return records, nil
}
