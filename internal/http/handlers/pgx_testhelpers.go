package handlers

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type SimpleRow struct {
	scan func(dest ...any) error
}

func NewSimpleRow(scanner func(dest ...any) error) SimpleRow {
	return SimpleRow{scan: scanner}
}

func (r SimpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type TestRowsBase struct{}

func (TestRowsBase) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (TestRowsBase) Conn() *pgx.Conn { return nil }

func (TestRowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (TestRowsBase) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (TestRowsBase) RawValues() [][]byte { return nil }

// sliceRows serves pre-scripted row tuples through the pgx.Rows interface.
type sliceRows struct {
	TestRowsBase
	tuples [][]any
	pos    int
	err    error
}

func (r *sliceRows) Close() {}

func (r *sliceRows) Err() error { return r.err }

func (r *sliceRows) Next() bool {
	if r.pos >= len(r.tuples) {
		return false
	}
	r.pos++
	return true
}

func (r *sliceRows) Scan(dest ...any) error {
	tuple := r.tuples[r.pos-1]
	if len(dest) != len(tuple) {
		return fmt.Errorf("scan arity mismatch: %d dest, %d values", len(dest), len(tuple))
	}
	for i, v := range tuple {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		case *bool:
			*d = v.(bool)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("unsupported scan destination %T", dest[i])
		}
	}
	return nil
}

var _ pgx.Rows = (*sliceRows)(nil)
