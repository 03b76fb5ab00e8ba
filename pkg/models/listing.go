package models

import (
	"context"
	"iter"

	"instapi/pkg/paginate"
	"instapi/pkg/wire"
)

// listing wires a paged remote operation into a lazy sequence of decoded
// entities. The binding is checked when iteration starts.
func listing[T any](
	ctx context.Context,
	b Binding,
	fetch func(API) paginate.Fetcher,
	itemsPath string,
	decode func(wire.Dict) (T, error),
	opts ...paginate.Option,
) iter.Seq2[T, error] {
	api, err := b.API()
	if err != nil {
		return paginate.Fail[T](err)
	}
	pages := paginate.Pages(ctx, fetch(api), opts...)
	raw := paginate.FlatMap(pages, func(page wire.Dict) ([]wire.Dict, error) {
		return pageItems(page, itemsPath)
	})
	return paginate.Map(raw, decode)
}

// pageItems projects the list at path out of a page. A page without the list
// is malformed and fails rather than reading as empty.
func pageItems(page wire.Dict, path string) ([]wire.Dict, error) {
	if _, ok := wire.Lookup(page, path); !ok {
		return nil, &wire.MissingFieldError{Type: "Page", Field: path}
	}
	return wire.Items(page, path), nil
}

// flatten concatenates the sequences produced by expand for each outer
// element, pulling the outer sequence only when the current inner one is
// exhausted.
func flatten[A, B any](outer iter.Seq2[A, error], expand func(A) iter.Seq2[B, error]) iter.Seq2[B, error] {
	return func(yield func(B, error) bool) {
		var zero B
		for a, err := range outer {
			if err != nil {
				yield(zero, err)
				return
			}
			for b, err := range expand(a) {
				if !yield(b, err) || err != nil {
					return
				}
			}
		}
	}
}
