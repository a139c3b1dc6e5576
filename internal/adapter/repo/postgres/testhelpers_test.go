package postgres_test

import (
	"context"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakePool is a programmable PgxPool for unit tests.
type fakePool struct {
	execFn  func(sql string, args []any) (pgconn.CommandTag, error)
	rowFn   func(sql string, args []any) pgx.Row
	queryFn func(sql string, args []any) (pgx.Rows, error)
	beginFn func() (pgx.Tx, error)

	execSQL []string
}

func (p *fakePool) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.execSQL = append(p.execSQL, sql)
	if p.execFn == nil {
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return p.execFn(sql, args)
}

func (p *fakePool) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	return p.rowFn(sql, args)
}

func (p *fakePool) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.queryFn(sql, args)
}

func (p *fakePool) BeginTx(_ context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	return p.beginFn()
}

// fakeRow scans a fixed value list, or fails with err.
type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.vals)
}

// fakeRows yields one fixed value list per Next.
type fakeRows struct {
	data [][]any
	pos  int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return assign(dest, r.data[r.pos-1]) }
func (r *fakeRows) Err() error             { return r.err }
func (r *fakeRows) Close()                 {}

func (r *fakeRows) CommandTag() pgconn.CommandTag               { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

// fakeTx records Exec calls and the commit/rollback outcome.
type fakeTx struct {
	execFn     func(sql string, args []any) (pgconn.CommandTag, error)
	execCount  int
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execCount++
	if t.execFn == nil {
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return t.execFn(sql, args)
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

func (t *fakeTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }
func (t *fakeTx) Conn() *pgx.Conn                       { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects        { return pgx.LargeObjects{} }

func (t *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (t *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row        { return fakeRow{} }

// assign copies vals into scan destinations. A nil value leaves the
// destination at its zero value, matching a SQL NULL into a pointer dest.
func assign(dest, vals []any) error {
	for i, d := range dest {
		if i >= len(vals) || vals[i] == nil {
			continue
		}
		dv := reflect.ValueOf(d).Elem()
		sv := reflect.ValueOf(vals[i])
		if sv.Type().ConvertibleTo(dv.Type()) {
			dv.Set(sv.Convert(dv.Type()))
			continue
		}
		// e.g. int value into *int dest
		if dv.Kind() == reflect.Pointer && sv.Type().ConvertibleTo(dv.Type().Elem()) {
			p := reflect.New(dv.Type().Elem())
			p.Elem().Set(sv.Convert(dv.Type().Elem()))
			dv.Set(p)
		}
	}
	return nil
}
