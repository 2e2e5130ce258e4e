package macos

import (
	"context"
	"errors"
	"os"

	"github.com/forensant/artemis/driver"
)

func init() {
	driver.Register("plist", []string{"darwin"}, collectPlist)
	driver.Register("bookmark", []string{"darwin"}, collectBookmark)
	driver.Register("loginitems", []string{"darwin"}, collectLoginItems)
	driver.Register("fsevents", []string{"darwin"}, collectFsEvents)
	driver.Register("spotlight-properties", []string{"darwin"}, collectSpotlightProperties)
	driver.Register("unifiedlog", []string{"darwin"}, collectUnifiedLog)
	driver.Register("macho", []string{"darwin"}, collectMachO)
}

var errMissingPath = errors.New("macos: missing required option \"path\"")

func requirePath(opts map[string]string) (string, error) {
	path := opts["path"]
	if path == "" {
		return "", errMissingPath
	}
	return path, nil
}

func collectPlist(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path, err := requirePath(opts)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := ParsePlist(data)
	if err != nil {
		return nil, err
	}
	return []interface{}{v}, nil
}

func collectBookmark(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path, err := requirePath(opts)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	bm, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return []interface{}{bm}, nil
}

func collectLoginItems(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path, err := requirePath(opts)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	items, err := ParseLoginItems(data)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(items))
	for _, it := range items {
		if ctx.Err() != nil {
			return out, nil
		}
		out = append(out, it)
	}
	return out, nil
}

func collectFsEvents(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path, err := requirePath(opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := ParseFile(f)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(recs))
	for _, r := range recs {
		if ctx.Err() != nil {
			return out, nil
		}
		out = append(out, r)
	}
	return out, nil
}

func collectSpotlightProperties(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path, err := requirePath(opts)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	props, err := ParsePropertyTable(data)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(props))
	for _, p := range props {
		out = append(out, p)
	}
	return out, nil
}

func collectMachO(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path, err := requirePath(opts)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	return []interface{}{h}, nil
}

func collectUnifiedLog(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	path, err := requirePath(opts)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	chunks, err := ParseChunks(ctx, data)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, c)
	}
	return out, nil
}
