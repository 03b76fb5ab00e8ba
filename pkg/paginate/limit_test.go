package paginate

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instapi/pkg/logger"
	"instapi/pkg/wire"
)

// counted yields 0..n-1 and records how many elements were pulled.
func counted(n int, pulls *int) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		for i := 0; i < n; i++ {
			*pulls++
			if !yield(i, nil) {
				return
			}
		}
	}
}

func TestCollectLimits(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		limit     Limit
		want      []int
		wantPulls int
	}{
		{"no limit", 5, NoLimit, []int{0, 1, 2, 3, 4}, 5},
		{"limit below length", 5, Max(2), []int{0, 1}, 2},
		{"limit equals length", 3, Max(3), []int{0, 1, 2}, 3},
		{"limit above length", 3, Max(10), []int{0, 1, 2}, 3},
		{"zero limit", 5, Max(0), nil, 0},
		{"empty source", 0, Max(4), nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pulls := 0
			got, err := Collect(counted(tt.n, &pulls), tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantPulls, pulls)
		})
	}
}

func TestNegativeLimitRejectedBeforePull(t *testing.T) {
	pulls := 0

	_, err := Take(counted(3, &pulls), Max(-1))
	assert.ErrorIs(t, err, ErrNegativeLimit)

	_, err = Collect(counted(3, &pulls), Max(-5))
	assert.ErrorIs(t, err, ErrNegativeLimit)

	assert.Zero(t, pulls)
}

func TestCollectReturnsPartialOnError(t *testing.T) {
	boom := errors.New("boom")
	var seq iter.Seq2[int, error] = func(yield func(int, error) bool) {
		if !yield(1, nil) {
			return
		}
		yield(0, boom)
	}

	got, err := Collect(seq, NoLimit)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{1}, got)
}

func TestLimitString(t *testing.T) {
	assert.Equal(t, "none", NoLimit.String())
	assert.Equal(t, "7", Max(7).String())
	assert.False(t, NoLimit.Bounded())
	assert.True(t, Max(0).Bounded())
	assert.Equal(t, 7, Max(7).N())
}

func TestTakeDoesNotRequestExtraPages(t *testing.T) {
	// 25 users across pages of 10, 10 and 5.
	var pages []wire.Dict
	pk := 0
	for i, size := range []int{10, 10, 5} {
		users := make([]any, 0, size)
		for j := 0; j < size; j++ {
			pk++
			users = append(users, map[string]any{"pk": pk})
		}
		page := wire.Dict{"users": users}
		if i < 2 {
			page["next_max_id"] = pk
		}
		pages = append(pages, page)
	}
	f := &recordingFetcher{pages: pages}

	users := FlatMap(Pages(context.Background(), f.fetch, WithLogger(logger.NewNopLogger())), func(page wire.Dict) ([]wire.Dict, error) {
		return wire.Items(page, "users"), nil
	})

	all, err := Collect(users, NoLimit)
	require.NoError(t, err)
	require.Len(t, all, 25)
	for i, u := range all {
		assert.Equal(t, i+1, u["pk"])
	}
	assert.Len(t, f.calls, 3)

	f.calls = nil
	first, err := Collect(users, Max(10))
	require.NoError(t, err)
	assert.Len(t, first, 10)
	assert.Len(t, f.calls, 1, "limit reached inside the first page")

	f.calls = nil
	some, err := Collect(users, Max(15))
	require.NoError(t, err)
	assert.Len(t, some, 15)
	assert.Len(t, f.calls, 2, "third page never requested")
}

func TestMapAndFilter(t *testing.T) {
	pulls := 0
	doubled := Map(counted(6, &pulls), func(v int) (int, error) { return v * 2, nil })
	evens := Filter(doubled, func(v int) bool { return v%4 == 0 })

	got, err := Collect(evens, Max(2))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4}, got)
	assert.Equal(t, 3, pulls)

	boom := errors.New("bad element")
	failing := Map(Slice([]int{1, 2, 3}), func(v int) (int, error) {
		if v == 2 {
			return 0, boom
		}
		return v, nil
	})
	got, err = Collect(failing, NoLimit)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{1}, got)
}

func TestFail(t *testing.T) {
	boom := errors.New("unbound")
	got, err := Collect(Fail[string](boom), NoLimit)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, got)
}
