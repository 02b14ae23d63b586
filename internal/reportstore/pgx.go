package reportstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxStore persists reports in PostgreSQL through a pgx pool.
type PgxStore struct {
	pool *pgxpool.Pool
}

func NewPgxStore(pool *pgxpool.Pool) *PgxStore {
	return &PgxStore{pool: pool}
}

// DSN builds a postgres URL from the DB_* settings.
func DSN(user, pass, host, port, name string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, name)
}

func (s *PgxStore) Migrate(ctx context.Context) error {
	for _, stmt := range splitStatements(postgresSchema) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return storeErr("migrate", err)
		}
	}
	return nil
}

func (s *PgxStore) Save(ctx context.Context, r NewReport) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	table, err := r.tableJSON()
	if err != nil {
		return 0, storeErr("save", err)
	}
	date, _ := time.Parse(DateFormat, r.Date)

	var id int64
	err = s.pool.QueryRow(ctx, rebind(insertReportSQL),
		r.Name, r.PosID, date, r.Source, r.Currency, r.bank(), len(r.TableData), table,
	).Scan(&id)
	if err != nil {
		return 0, storeErr("save", err)
	}
	return id, nil
}

func (s *PgxStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.pool.Query(ctx, rebind(listReportsSQL))
	if err != nil {
		return nil, storeErr("list", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum  Summary
			date time.Time
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.PosID, &date, &sum.Source, &sum.Currency, &sum.Bank, &sum.RowCount, &sum.CreatedAt); err != nil {
			return nil, storeErr("list", err)
		}
		sum.Date = date.Format(DateFormat)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list", err)
	}
	return out, nil
}

func (s *PgxStore) Get(ctx context.Context, id int64) (*Report, error) {
	var (
		rep   Report
		date  time.Time
		table []byte
	)
	err := s.pool.QueryRow(ctx, rebind(getReportSQL), id).Scan(
		&rep.ID, &rep.Name, &rep.PosID, &date, &rep.Source, &rep.Currency, &rep.Bank, &rep.RowCount, &rep.CreatedAt, &table,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get", err)
	}
	rep.Date = date.Format(DateFormat)
	if rep.TableData, err = decodeTable(table); err != nil {
		return nil, storeErr("get", err)
	}
	return &rep, nil
}

func (s *PgxStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, rebind(deleteReportSQL), id)
	if err != nil {
		return storeErr("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
