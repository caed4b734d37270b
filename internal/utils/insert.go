package querybuilder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoColumns   = errors.New("insert has no columns")
	ErrNoRows      = errors.New("insert has no rows")
	ErrRowMismatch = errors.New("row width does not match columns")
)

// InsertRows holds the values of a multi-row insert
type InsertRows [][]interface{}

// InsertBuilder builds a multi-row INSERT with "?" placeholders; rebind before executing
type InsertBuilder struct {
	schema string
	table  string
	cols   []string
	rows   InsertRows
}

func NewInsert(schema, table string) *InsertBuilder {
	return &InsertBuilder{
		schema: schema,
		table:  table,
	}
}

func (b *InsertBuilder) Columns(cols ...string) *InsertBuilder {
	b.cols = cols
	return b
}

func (b *InsertBuilder) Values(values ...interface{}) *InsertBuilder {
	b.rows = append(b.rows, values)
	return b
}

func (b *InsertBuilder) Build() (string, []interface{}, error) {
	if len(b.cols) == 0 {
		return "", nil, ErrNoColumns
	}
	if len(b.rows) == 0 {
		return "", nil, ErrNoRows
	}

	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(b.cols)), ", ") + ")"
	tuples := make([]string, len(b.rows))
	args := make([]interface{}, 0, len(b.rows)*len(b.cols))
	for i, row := range b.rows {
		if len(row) != len(b.cols) {
			return "", nil, fmt.Errorf("row %d: %w", i, ErrRowMismatch)
		}
		tuples[i] = tuple
		args = append(args, row...)
	}

	table := b.table
	if b.schema != "" {
		table = b.schema + "." + b.table
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(b.cols, ", "), strings.Join(tuples, ", "))

	return query, args, nil
}
