// Command artemis is the engine's CLI front end (spec §6): it loads a
// TOML collection configuration (from disk, an embedded base64 blob,
// or a single-artifact "acquire" convenience invocation), runs the
// collection driver against it, and reports via exit code. Grounded on
// collectd/main.go's flag/init/GetConfig/run shape.
package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/forensant/artemis/artlog"
	"github.com/forensant/artemis/config"
	"github.com/forensant/artemis/driver"
	"github.com/forensant/artemis/entry"
	"github.com/forensant/artemis/output"
	"github.com/forensant/artemis/script"

	_ "github.com/forensant/artemis/parsers/browsers"
	_ "github.com/forensant/artemis/parsers/ese"
	_ "github.com/forensant/artemis/parsers/evtx"
	_ "github.com/forensant/artemis/parsers/linux"
	_ "github.com/forensant/artemis/parsers/lnk"
	_ "github.com/forensant/artemis/parsers/macos"
	_ "github.com/forensant/artemis/parsers/ntfs"
	_ "github.com/forensant/artemis/parsers/prefetch"
	_ "github.com/forensant/artemis/parsers/propertystore"
	_ "github.com/forensant/artemis/parsers/registry"
	_ "github.com/forensant/artemis/parsers/scheduledtask"
	_ "github.com/forensant/artemis/parsers/secdescriptor"
	_ "github.com/forensant/artemis/parsers/shimdb"
	_ "github.com/forensant/artemis/parsers/wmi"
)

const (
	identityFile = "artemis-identity.txt"
	exitOK       = 0
	exitConfig   = 1
	exitRuntime  = 2
)

var (
	tomlPath   = flag.String("toml", "", "run the collection config at <path>")
	decodeBlob = flag.String("decode", "", "decode and run a base64-encoded embedded configuration")
	jsPath     = flag.String("javascript", "", "execute a standalone script under the script runtime")

	acquireFormat    = flag.String("format", "jsonl", "acquire: output format (json|jsonl)")
	acquireOutputDir = flag.String("output-dir", ".", "acquire: output directory")
	acquireCompress  = flag.Bool("compress", false, "acquire: gzip output")
	acquireTimeline  = flag.Bool("timeline", false, "acquire: also write a timeline/ stream")
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	lg, err := artlog.NewFile(os.Getenv("ARTEMIS_LOG"))
	if err != nil {
		lg = artlog.NewDiscard()
	}
	defer lg.Close()

	if len(args) > 0 && args[0] == "acquire" {
		return runAcquire(lg, args[1:])
	}

	flag.CommandLine.Parse(args)

	switch {
	case *jsPath != "":
		return runScript(lg, *jsPath)
	case *decodeBlob != "":
		raw, err := base64.StdEncoding.DecodeString(*decodeBlob)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --decode payload: %v\n", err)
			return exitConfig
		}
		return runConfig(lg, raw)
	case *tomlPath != "":
		raw, err := os.ReadFile(*tomlPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", *tomlPath, err)
			return exitConfig
		}
		return runConfig(lg, raw)
	default:
		fmt.Fprintln(os.Stderr, "usage: artemis [--toml <path> | --decode <base64> | --javascript <path> | acquire <artifact> ...]")
		return exitConfig
	}
}

func runConfig(lg *artlog.Logger, raw []byte) int {
	cfg, err := config.Parse(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse configuration: %v\n", err)
		return exitConfig
	}
	if err := cfg.Verify(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return exitConfig
	}
	if len(cfg.Log_Level) > 0 {
		if err := lg.SetLevelString(cfg.Log_Level); err != nil {
			fmt.Fprintf(os.Stderr, "invalid log level %q: %v\n", cfg.Log_Level, err)
			return exitConfig
		}
	}
	if err := cfg.Resolve(identityFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve endpoint identity: %v\n", err)
		return exitConfig
	}

	return collect(lg, cfg)
}

func runAcquire(lg *artlog.Logger, args []string) int {
	fs := flag.NewFlagSet("acquire", flag.ContinueOnError)
	format := fs.String("format", *acquireFormat, "output format (json|jsonl)")
	outputDir := fs.String("output-dir", *acquireOutputDir, "output directory")
	compress := fs.Bool("compress", *acquireCompress, "gzip output")
	timeline := fs.Bool("timeline", *acquireTimeline, "also write a timeline/ stream")
	if err := fs.Parse(args); err != nil || fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: artemis acquire <artifact> [--format ...] [--output-dir ...] [--compress] [--timeline]")
		return exitConfig
	}
	name := fs.Arg(0)

	cfg := config.CollectionConfig{
		Name:      "acquire-" + name,
		Artifacts: []config.ArtifactConfig{{Name: name}},
		Output: config.OutputTarget{
			Kind:      "local",
			Directory: *outputDir,
			Format:    *format,
			Compress:  *compress,
			Timeline:  *timeline,
		},
	}
	if err := cfg.Verify(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid acquire invocation: %v\n", err)
		return exitConfig
	}
	if err := cfg.Resolve(identityFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve endpoint identity: %v\n", err)
		return exitConfig
	}
	return collect(lg, cfg)
}

func collect(lg *artlog.Logger, cfg config.CollectionConfig) int {
	writer, err := buildWriter(cfg.Output, cfg.Name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build output writer: %v\n", err)
		return exitConfig
	}

	meta := entry.Metadata{EndpointID: cfg.EndpointID, CollectionID: time.Now().Unix()}
	pipeline := output.NewPipeline(cfg.Output, writer, meta)
	if cfg.Output.Timeline {
		pipeline.Timeline = output.NewTimelineWriter(cfg.Output.Directory, cfg.Name)
	}
	if cfg.Output.FilterScript != "" {
		filterSrc, err := os.ReadFile(cfg.Output.FilterScript)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read filter script: %v\n", err)
			return exitConfig
		}
		pipeline.Filter = func(records []interface{}, artifactName string) ([]interface{}, error) {
			return script.RunFilter(context.Background(), filterSrc, artifactName, records, 30*time.Second)
		}
	}

	statuses := driver.Run(context.Background(), cfg, pipeline, lg, 0)

	failed := false
	lines := make([]string, 0, len(statuses))
	for _, s := range statuses {
		lines = append(lines, s.String())
		if s.Outcome == driver.OutcomeError {
			failed = true
		}
	}
	if lw, ok := writer.(*output.LocalWriter); ok {
		if err := lw.Close(); err != nil {
			lg.Warnf("failed to flush local writer: %v", err)
		}
		if err := output.WriteStatusLog(lw.Directory, cfg.Name, lines); err != nil {
			lg.Warnf("failed to write status.log: %v", err)
		}
	}

	if failed {
		return exitRuntime
	}
	return exitOK
}

func buildWriter(target config.OutputTarget, name string) (output.Writer, error) {
	if err := target.Verify(); err != nil {
		return nil, err
	}
	if target.Kind == "remote" {
		return output.NewRemoteWriter(target.URL, !target.InsecureSkipTLS), nil
	}
	return output.NewLocalWriter(target.Directory, name), nil
}

func runScript(lg *artlog.Logger, path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read script %s: %v\n", path, err)
		return exitConfig
	}
	rt, err := script.New(src, script.NewHost(lg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build script: %v\n", err)
		return exitConfig
	}
	if err := rt.Run(context.Background(), 0); err != nil {
		fmt.Fprintf(os.Stderr, "script failed: %v\n", err)
		return exitRuntime
	}
	return exitOK
}
