package reportstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLStore persists reports through database/sql. The postgres dialect is
// used with lib/pq; the sqlite dialect with modernc.org/sqlite.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

func NewSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	switch dialect {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

func (s *SQLStore) q(query string) string {
	if s.dialect == "postgres" {
		return rebind(query)
	}
	return query
}

// Migrate creates the reports table when it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if s.dialect == "sqlite" {
		schema = sqliteSchema
	}
	for _, stmt := range splitStatements(schema) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return storeErr("migrate", err)
		}
	}
	return nil
}

func (s *SQLStore) Save(ctx context.Context, r NewReport) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	table, err := r.tableJSON()
	if err != nil {
		return 0, storeErr("save", err)
	}
	var id int64
	err = s.db.QueryRowContext(ctx, s.q(insertReportSQL),
		r.Name, r.PosID, r.Date, r.Source, r.Currency, r.bank(), len(r.TableData), string(table),
	).Scan(&id)
	if err != nil {
		return 0, storeErr("save", err)
	}
	return id, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, s.q(listReportsSQL))
	if err != nil {
		return nil, storeErr("list", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum     Summary
			date    dateValue
			created timeValue
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.PosID, &date, &sum.Source, &sum.Currency, &sum.Bank, &sum.RowCount, &created); err != nil {
			return nil, storeErr("list", err)
		}
		sum.Date = date.s
		sum.CreatedAt = created.t
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list", err)
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (*Report, error) {
	var (
		rep     Report
		date    dateValue
		created timeValue
		table   []byte
	)
	err := s.db.QueryRowContext(ctx, s.q(getReportSQL), id).Scan(
		&rep.ID, &rep.Name, &rep.PosID, &date, &rep.Source, &rep.Currency, &rep.Bank, &rep.RowCount, &created, &table,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get", err)
	}
	rep.Date = date.s
	rep.CreatedAt = created.t
	if rep.TableData, err = decodeTable(table); err != nil {
		return nil, storeErr("get", err)
	}
	return &rep, nil
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q(deleteReportSQL), id)
	if err != nil {
		return storeErr("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("delete", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func splitStatements(schema string) []string {
	var out []string
	for _, stmt := range strings.Split(schema, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
