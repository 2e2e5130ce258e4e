// Package browsers reads browser history out of each browser family's
// native SQLite database, via a pure-Go SQLite driver since this
// engine collects from live or imaged disks where cgo toolchains
// aren't available. Grounded on the ese package's "open the real
// database file, run typed queries against it" shape, with
// database/sql playing ESE's Database role.
package browsers

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/forensant/artemis/nom"
)

// HistoryEntry is one normalized visit row, common across the three
// supported browser families.
type HistoryEntry struct {
	Browser       string
	URL           string
	Title         string
	VisitCount    int64
	VisitTime     int64 // unix seconds, the common field every family normalizes to
	VisitTimeCocoa float64 // Safari only: full-precision Cocoa time (§ Safari dual-timestamp)
}

// openReadOnly opens path as a read-only SQLite connection. Browser
// history databases are frequently open/locked by the running
// browser; `mode=ro&immutable=1` lets this engine still take a
// point-in-time read without taking or waiting on SQLite locks.
func openReadOnly(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&immutable=1", path)
	return sql.Open("sqlite", dsn)
}

// ChromiumHistory reads a Chromium-family `History` SQLite database's
// `urls` table (§4.2.1).
func ChromiumHistory(ctx context.Context, path string) ([]HistoryEntry, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT url, title, visit_count, last_visit_time FROM urls`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		if ctx.Err() != nil {
			return out, nil
		}
		var e HistoryEntry
		var webkitTime int64
		if err := rows.Scan(&e.URL, &e.Title, &e.VisitCount, &webkitTime); err != nil {
			continue
		}
		e.Browser = "chromium"
		e.VisitTime = nom.WebKitToUnix(webkitTime)
		out = append(out, e)
	}
	return out, rows.Err()
}

// FirefoxHistory reads a Firefox `places.sqlite` database's
// `moz_places` table.
func FirefoxHistory(ctx context.Context, path string) ([]HistoryEntry, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT url, title, visit_count, last_visit_date FROM moz_places`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		if ctx.Err() != nil {
			return out, nil
		}
		var e HistoryEntry
		var microseconds sql.NullInt64
		var title sql.NullString
		if err := rows.Scan(&e.URL, &title, &e.VisitCount, &microseconds); err != nil {
			continue
		}
		e.Browser = "firefox"
		e.Title = title.String
		if microseconds.Valid {
			e.VisitTime = microseconds.Int64 / 1_000_000
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SafariHistory reads Safari's `History.db`, keeping both the
// truncated visit_time the original SQL `CAST(... AS INT)` produces
// and the full-precision Cocoa float, per the resolved Open Question
// on Safari's dual timestamp representation.
func SafariHistory(ctx context.Context, path string) ([]HistoryEntry, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	const q = `SELECT history_items.url, history_visits.title, history_items.visit_count, history_visits.visit_time
		FROM history_visits JOIN history_items ON history_visits.history_item = history_items.id`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		if ctx.Err() != nil {
			return out, nil
		}
		var e HistoryEntry
		var title sql.NullString
		var cocoa float64
		if err := rows.Scan(&e.URL, &title, &e.VisitCount, &cocoa); err != nil {
			continue
		}
		e.Browser = "safari"
		e.Title = title.String
		e.VisitTimeCocoa = cocoa
		e.VisitTime = int64(cocoa) + cocoaEpochOffset // CAST(... AS INT) truncation, kept alongside the float
		out = append(out, e)
	}
	return out, rows.Err()
}

// cocoaEpochOffset converts a Cocoa absolute time's integer truncation
// into Unix seconds (2001-01-01 -> 1970-01-01), matching
// nom.CocoaToUnix's offset without the float's zero-means-epoch guard
// (a truncated non-zero cocoa time is never legitimately zero).
const cocoaEpochOffset = 978307200
