package db_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// assign copies values into scan destinations the way pgx would for
// already-decoded Go values.
func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		target := reflect.ValueOf(dest[i])
		if target.Kind() != reflect.Ptr {
			return fmt.Errorf("scan: destination %d is not a pointer", i)
		}
		source := reflect.ValueOf(v)
		if !source.Type().AssignableTo(target.Elem().Type()) {
			return fmt.Errorf("scan: cannot assign %T to %s", v, target.Elem().Type())
		}
		target.Elem().Set(source)
	}
	return nil
}

type fakeRows struct {
	rows   [][]any
	idx    int
	err    error
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.closed || r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.rows[r.idx-1], dest)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.idx-1], nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

type fakeBatchResults struct {
	rows     *fakeRows
	queryErr error
	count    any
	countErr error
	closeErr error
	closed   bool
}

func (b *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected Exec")
}

func (b *fakeBatchResults) Query() (pgx.Rows, error) {
	if b.queryErr != nil {
		return nil, b.queryErr
	}
	if b.rows == nil {
		b.rows = &fakeRows{}
	}
	return b.rows, nil
}

func (b *fakeBatchResults) QueryRow() pgx.Row {
	return &fakeRow{values: []any{b.count}, err: b.countErr}
}

func (b *fakeBatchResults) Close() error {
	b.closed = true
	return b.closeErr
}

// fakeDB records what the product source sends and replays canned results
type fakeDB struct {
	batch     *pgx.Batch
	sendCount int
	results   *fakeBatchResults

	querySQL  []string
	queryArgs [][]any
	queryRows *fakeRows
	queryErr  error
}

func (f *fakeDB) SendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults {
	f.sendCount++
	f.batch = batch
	if f.results == nil {
		f.results = &fakeBatchResults{}
	}
	return f.results
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	f.querySQL = append(f.querySQL, sql)
	f.queryArgs = append(f.queryArgs, args)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.queryRows == nil {
		f.queryRows = &fakeRows{}
	}
	return f.queryRows, nil
}
