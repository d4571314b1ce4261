package pagination

import "context"

// Source provides the total size of a collection and bounded windows of it.
// Fetch must honour a stable order, otherwise consecutive pages overlap.
type Source[T any] interface {
	Count(ctx context.Context) (int, error)
	Fetch(ctx context.Context, limit, offset int) ([]T, error)
}

// SourceFunc is a query-backed Source: both calls are delegated to storage.
type SourceFunc[T any] struct {
	CountFn func(ctx context.Context) (int, error)
	FetchFn func(ctx context.Context, limit, offset int) ([]T, error)
}

func (s SourceFunc[T]) Count(ctx context.Context) (int, error) { return s.CountFn(ctx) }

func (s SourceFunc[T]) Fetch(ctx context.Context, limit, offset int) ([]T, error) {
	return s.FetchFn(ctx, limit, offset)
}

// SliceSource is a Source over an already materialised collection. Windows are
// cut in memory, so every page costs O(len) of whatever built the slice.
type SliceSource[T any] []T

func (s SliceSource[T]) Count(context.Context) (int, error) { return len(s), nil }

func (s SliceSource[T]) Fetch(_ context.Context, limit, offset int) ([]T, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(s) {
		return []T{}, nil
	}
	end := offset + limit
	if end > len(s) {
		end = len(s)
	}
	out := make([]T, end-offset)
	copy(out, s[offset:end])
	return out, nil
}

var (
	_ Source[int] = SourceFunc[int]{}
	_ Source[int] = SliceSource[int]{}
)
