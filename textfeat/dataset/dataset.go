package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
)

// Row holds one record's values, aligned with the dataset's column order.
type Row []any

// Dataset is an immutable in-memory columnar table. Transformations derive
// new datasets; existing rows are never mutated in place.
type Dataset struct {
	cols    []string
	colIdx  map[string]int
	rows    []Row
	workers int
}

// MapFunc computes the values of newly added columns for a single row.
// It is invoked concurrently across rows and must not retain or mutate
// shared state beyond read-only broadcast values.
type MapFunc func(ctx context.Context, row Row) ([]any, error)

// New builds a dataset from column names and rows. Every row must have
// exactly one value per column.
func New(cols []string, rows []Row) (*Dataset, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("dataset requires at least one column")
	}
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := idx[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		idx[c] = i
	}
	for i, r := range rows {
		if len(r) != len(cols) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(r), len(cols))
		}
	}
	return &Dataset{cols: cols, colIdx: idx, rows: rows, workers: defaultWorkers()}, nil
}

// WithWorkers overrides the worker count used by parallel operations.
// Zero or negative restores the CPU-derived default.
func (d *Dataset) WithWorkers(n int) *Dataset {
	out := *d
	if n <= 0 {
		n = defaultWorkers()
	}
	out.workers = n
	return &out
}

// defaultWorkers sizes the row-mapping pool: CPU-bound work, capped to
// avoid oversubscription on large machines.
func defaultWorkers() int {
	return min(max(runtime.NumCPU(), 2), 32)
}

// Columns returns the column names in order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.cols))
	copy(out, d.cols)
	return out
}

// Len returns the row count.
func (d *Dataset) Len() int { return len(d.rows) }

// ColumnIndex returns the positional index of the named column, for
// row-level access inside map functions.
func (d *Dataset) ColumnIndex(name string) (int, error) {
	j, ok := d.colIdx[name]
	if !ok {
		return 0, fmt.Errorf("unknown column %q", name)
	}
	return j, nil
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.colIdx[name]
	return ok
}

// Value returns the value at row i for the named column.
func (d *Dataset) Value(i int, col string) (any, error) {
	j, ok := d.colIdx[col]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", col)
	}
	if i < 0 || i >= len(d.rows) {
		return nil, fmt.Errorf("row index %d out of range [0,%d)", i, len(d.rows))
	}
	return d.rows[i][j], nil
}

// StringColumn collects the named column as strings. Non-string values
// are an error; the caller owns schema discipline.
func (d *Dataset) StringColumn(col string) ([]string, error) {
	j, ok := d.colIdx[col]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", col)
	}
	out := make([]string, len(d.rows))
	for i, r := range d.rows {
		s, ok := r[j].(string)
		if !ok {
			return nil, fmt.Errorf("column %q row %d: expected string, got %T", col, i, r[j])
		}
		out[i] = s
	}
	return out, nil
}

// WithColumns derives a new dataset with additional columns whose values
// are computed per row by fn, running data-parallel on a bounded worker
// pool. The first row error cancels the remaining work and fails the
// whole operation; there is no partial result.
func (d *Dataset) WithColumns(ctx context.Context, newCols []string, fn MapFunc) (*Dataset, error) {
	for _, c := range newCols {
		if _, dup := d.colIdx[c]; dup {
			return nil, fmt.Errorf("column %q already exists", c)
		}
	}

	cols := make([]string, 0, len(d.cols)+len(newCols))
	cols = append(cols, d.cols...)
	cols = append(cols, newCols...)

	out := make([]Row, len(d.rows))
	var processed atomic.Int64

	p := pool.New().WithMaxGoroutines(d.workers).WithContext(ctx).WithCancelOnError()
	for i, row := range d.rows {
		p.Go(func(ctx context.Context) error {
			added, err := fn(ctx, row)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			if len(added) != len(newCols) {
				return fmt.Errorf("row %d: map returned %d values, want %d", i, len(added), len(newCols))
			}
			merged := make(Row, 0, len(cols))
			merged = append(merged, row...)
			merged = append(merged, added...)
			out[i] = merged
			processed.Add(1)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("columns added",
		"new_columns", newCols,
		"rows", processed.Load(),
		"workers", d.workers)

	return &Dataset{cols: cols, colIdx: indexOf(cols), rows: out, workers: d.workers}, nil
}

func indexOf(cols []string) map[string]int {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	return idx
}
