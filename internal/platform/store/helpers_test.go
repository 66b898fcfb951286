package store

import (
	"context"
	"testing"

	perr "torrenthealth/internal/platform/errors"
)

// fakeQuerier feeds canned rows through the helper generics
type fakeQuerier struct {
	data [][]any
	err  error
}

func (f *fakeQuerier) Exec(context.Context, string, ...any) (CommandTag, error) {
	panic("unexpected Exec")
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (Rows, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fakeRows{data: f.data, idx: -1}, nil
}

func (f *fakeQuerier) QueryRow(context.Context, string, ...any) Row {
	if len(f.data) == 0 {
		return fakeRow{err: perr.ErrNotFound}
	}
	return fakeRow{vals: f.data[0]}
}

type fakeRows struct {
	data [][]any
	idx  int
}

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.data)
}

func (r *fakeRows) Scan(dst ...any) error { return assign(r.data[r.idx], dst) }
func (r *fakeRows) Err() error            { return nil }
func (r *fakeRows) Close()                {}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dst ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.vals, dst)
}

func assign(src []any, dst []any) error {
	for i := range dst {
		switch d := dst[i].(type) {
		case *string:
			*d = src[i].(string)
		case *int64:
			*d = src[i].(int64)
		}
	}
	return nil
}

func TestScalar(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{data: [][]any{{int64(7)}}}
	got, err := Scalar[int64](context.Background(), q, "SELECT 7")
	if err != nil || got != 7 {
		t.Fatalf("got %d err %v", got, err)
	}
}

func scanPair(r Row) (string, error) {
	var s string
	err := r.Scan(&s)
	return s, err
}

func TestOne(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{data: [][]any{{"only"}}}
	got, err := One(context.Background(), q, scanPair, "SELECT 1")
	if err != nil || got != "only" {
		t.Fatalf("got %q err %v", got, err)
	}
}

func TestOne_Empty(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{}
	if _, err := One(context.Background(), q, scanPair, "SELECT 1"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestOne_TooManyRows(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{data: [][]any{{"a"}, {"b"}}}
	if _, err := One(context.Background(), q, scanPair, "SELECT 2"); err == nil {
		t.Fatal("expected error for multi-row result")
	}
}

func TestMany(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{data: [][]any{{"a"}, {"b"}, {"c"}}}
	got, err := Many(context.Background(), q, scanPair, "SELECT 3")
	if err != nil {
		t.Fatalf("Many: %v", err)
	}
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("got %v", got)
	}
}
