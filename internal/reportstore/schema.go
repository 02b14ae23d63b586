package reportstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	pos_id      TEXT NOT NULL DEFAULT '',
	report_date DATE NOT NULL,
	source      TEXT NOT NULL,
	currency    TEXT NOT NULL DEFAULT '',
	bank        TEXT NOT NULL DEFAULT '',
	row_count   INTEGER NOT NULL DEFAULT 0,
	table_data  JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS reports_date_idx ON reports (report_date DESC, id DESC);`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	pos_id      TEXT NOT NULL DEFAULT '',
	report_date TEXT NOT NULL,
	source      TEXT NOT NULL,
	currency    TEXT NOT NULL DEFAULT '',
	bank        TEXT NOT NULL DEFAULT '',
	row_count   INTEGER NOT NULL DEFAULT 0,
	table_data  TEXT NOT NULL,
	created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);
CREATE INDEX IF NOT EXISTS reports_date_idx ON reports (report_date DESC, id DESC);`

const (
	insertReportSQL = `INSERT INTO reports (name, pos_id, report_date, source, currency, bank, row_count, table_data)
VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	listReportsSQL = `SELECT id, name, pos_id, report_date, source, currency, bank, row_count, created_at
FROM reports ORDER BY report_date DESC, id DESC`
	getReportSQL = `SELECT id, name, pos_id, report_date, source, currency, bank, row_count, created_at, table_data
FROM reports WHERE id = ?`
	deleteReportSQL = `DELETE FROM reports WHERE id = ?`
)

// rebind rewrites ? placeholders into $1, $2, ... for PostgreSQL.
func rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// dateValue scans DATE columns from PostgreSQL and TEXT columns from
// SQLite into DateFormat.
type dateValue struct{ s string }

func (d *dateValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.s = v.Format(DateFormat)
	case string:
		d.s = trimDate(v)
	case []byte:
		d.s = trimDate(string(v))
	case nil:
		d.s = ""
	default:
		return fmt.Errorf("unsupported date type %T", src)
	}
	return nil
}

func trimDate(s string) string {
	if len(s) >= len(DateFormat) {
		return s[:len(DateFormat)]
	}
	return s
}

type timeValue struct{ t time.Time }

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"}

func (tv *timeValue) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case time.Time:
		tv.t = v
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		tv.t = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported time type %T", src)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			tv.t = t
			return nil
		}
	}
	return fmt.Errorf("cannot parse time %q", s)
}
