package sqlstore

import (
	"fmt"
	"time"

	"github.com/rpggio/taskboard/internal/repository"
)

// timestampLayouts are the text forms SQLite may hand back for a TIMESTAMP
// column, tried in order.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// timestamp scans a TIMESTAMP column without failing the query. A value that
// cannot be read is kept in raw and reported later by value.
type timestamp struct {
	time  time.Time
	null  bool
	valid bool
	raw   any
}

func (t *timestamp) Scan(src any) error {
	*t = timestamp{raw: src}
	switch v := src.(type) {
	case nil:
		t.null = true
	case time.Time:
		t.time, t.valid = v.UTC(), true
	case string:
		t.time, t.valid = parseTimestamp(v)
	case []byte:
		t.time, t.valid = parseTimestamp(string(v))
	}
	return nil
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			return v.UTC(), true
		}
	}
	return time.Time{}, false
}

// value returns the parsed time or ErrCorruptData naming column.
func (t timestamp) value(column string) (time.Time, error) {
	if !t.valid {
		return time.Time{}, fmt.Errorf("%s holds %v: %w", column, t.raw, repository.ErrCorruptData)
	}
	return t.time, nil
}

// optional is value for a nullable column; NULL yields nil.
func (t timestamp) optional(column string) (*time.Time, error) {
	if t.null {
		return nil, nil
	}
	v, err := t.value(column)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
