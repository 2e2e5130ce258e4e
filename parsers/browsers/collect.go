package browsers

import (
	"context"
	"errors"

	"github.com/forensant/artemis/driver"
)

func init() {
	driver.Register("chromium-history", nil, collectChromium)
	driver.Register("firefox-history", nil, collectFirefox)
	driver.Register("safari-history", []string{"darwin"}, collectSafari)
}

var errMissingPath = errors.New("browsers: missing required option \"path\"")

func collectChromium(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	return collectInto(ctx, opts, ChromiumHistory)
}

func collectFirefox(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	return collectInto(ctx, opts, FirefoxHistory)
}

func collectSafari(ctx context.Context, opts map[string]string) ([]interface{}, error) {
	return collectInto(ctx, opts, SafariHistory)
}

func collectInto(ctx context.Context, opts map[string]string, fn func(context.Context, string) ([]HistoryEntry, error)) ([]interface{}, error) {
	path := opts["path"]
	if path == "" {
		return nil, errMissingPath
	}
	entries, err := fn(ctx, path)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	return out, nil
}
