package record

import (
	"sort"
	"time"
)

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// collapseByTime keeps only the last-written entry for each distinct instant and
// orders the result newest first. Entries without an instant are kept, after
// the dated ones, in their original order.
func collapseByTime[T any](items []T, at func(*T) time.Time) []T {
	last := make(map[int64]int, len(items))
	for i := range items {
		if t := at(&items[i]); !t.IsZero() {
			last[t.UnixNano()] = i
		}
	}

	out := make([]T, 0, len(items))
	for i := range items {
		t := at(&items[i])
		if !t.IsZero() && last[t.UnixNano()] != i {
			continue
		}
		out = append(out, items[i])
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := at(&out[i]), at(&out[j])
		if ti.IsZero() || tj.IsZero() {
			return !ti.IsZero() && tj.IsZero()
		}
		return ti.After(tj)
	})
	return out
}
