package paginate

import (
	"errors"
	"fmt"
	"iter"

	"instapi/pkg/wire"
)

// ErrNegativeLimit is returned by Take and Collect for a negative limit.
var ErrNegativeLimit = errors.New("limit must be non-negative")

// Limit bounds a materialization. The zero value is NoLimit.
type Limit struct {
	n   int
	set bool
}

// NoLimit produces every element of the source.
var NoLimit = Limit{}

// Max produces at most n elements.
func Max(n int) Limit {
	return Limit{n: n, set: true}
}

// Bounded reports whether the limit caps the sequence.
func (l Limit) Bounded() bool {
	return l.set
}

// N returns the cap. It is meaningless for NoLimit.
func (l Limit) N() int {
	return l.n
}

func (l Limit) String() string {
	if !l.set {
		return "none"
	}
	return fmt.Sprint(l.n)
}

func (l Limit) validate() error {
	if l.set && l.n < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeLimit, l.n)
	}
	return nil
}

// Take returns seq truncated to limit. It stops pulling from seq as soon as
// the limit is reached; Max(0) pulls nothing at all.
func Take[T any](seq iter.Seq2[T, error], limit Limit) (iter.Seq2[T, error], error) {
	if err := limit.validate(); err != nil {
		return nil, err
	}
	if !limit.set {
		return seq, nil
	}
	return func(yield func(T, error) bool) {
		if limit.n == 0 {
			return
		}
		count := 0
		for v, err := range seq {
			if !yield(v, err) || err != nil {
				return
			}
			count++
			if count >= limit.n {
				return
			}
		}
	}, nil
}

// Collect materializes seq up to limit. On error the elements gathered so far
// are returned with it.
func Collect[T any](seq iter.Seq2[T, error], limit Limit) ([]T, error) {
	bounded, err := Take(seq, limit)
	if err != nil {
		return nil, err
	}
	var out []T
	for v, err := range bounded {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// FlatMap expands every page into the elements produced by project.
func FlatMap[T any](pages iter.Seq2[wire.Dict, error], project func(wire.Dict) ([]T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for page, err := range pages {
			if err != nil {
				yield(zero, err)
				return
			}
			items, err := project(page)
			if err != nil {
				yield(zero, err)
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// Filter drops the elements for which keep reports false.
func Filter[T any](seq iter.Seq2[T, error], keep func(T) bool) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for v, err := range seq {
			if err != nil {
				yield(v, err)
				return
			}
			if keep(v) && !yield(v, nil) {
				return
			}
		}
	}
}

// Slice exposes a materialized slice as a sequence.
func Slice[T any](items []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, v := range items {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Fail is a sequence that yields err once.
func Fail[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}

// Map converts every element lazily; the first conversion error ends the
// sequence.
func Map[A, B any](seq iter.Seq2[A, error], fn func(A) (B, error)) iter.Seq2[B, error] {
	return func(yield func(B, error) bool) {
		var zero B
		for v, err := range seq {
			if err != nil {
				yield(zero, err)
				return
			}
			out, err := fn(v)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(out, nil) {
				return
			}
		}
	}
}
