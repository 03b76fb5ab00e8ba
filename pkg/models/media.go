package models

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"

	"instapi/pkg/paginate"
	"instapi/pkg/wire"
)

// ErrNoMediaInfo is returned when the media info response holds no item.
var ErrNoMediaInfo = errors.New("media info response has no items")

// Media is a post or story. Its info blob is fetched on first use and shared
// by every copy of the value.
type Media struct {
	Entity

	b    Binding
	info *infoCache
}

type infoCache struct {
	mu   sync.Mutex
	data wire.Dict
}

// MediaSchema declares the wire keys of a media entity.
var MediaSchema = EntitySchema.Extend("Media")

// NewMedia decodes a media payload.
func NewMedia(b Binding, data wire.Dict) (Media, error) {
	m, err := wire.Create[Media](data, MediaSchema)
	if err != nil {
		return Media{}, err
	}
	m.attach(b)
	return m, nil
}

func (m *Media) attach(b Binding) {
	m.b = b
	m.info = &infoCache{}
}

// Equal reports whether both media share a primary key.
func (m Media) Equal(other Media) bool {
	return m.PK == other.PK
}

// Info returns the first item of the media info response. Only a successful
// response is cached.
func (m Media) Info(ctx context.Context) (wire.Dict, error) {
	if m.info != nil {
		m.info.mu.Lock()
		defer m.info.mu.Unlock()
		if m.info.data != nil {
			return m.info.data, nil
		}
	}

	api, err := m.b.API()
	if err != nil {
		return nil, err
	}
	resp, err := api.MediaInfo(ctx, m.ID())
	if err != nil {
		return nil, err
	}
	items := wire.Items(resp, "items")
	if len(items) == 0 {
		return nil, fmt.Errorf("media %d: %w", m.ID(), ErrNoMediaInfo)
	}

	if m.info != nil {
		m.info.data = items[0]
	}
	return items[0], nil
}

// Comment posts text as a new comment and returns the acknowledgement.
func (m Media) Comment(ctx context.Context, text string) (wire.Dict, error) {
	api, err := m.b.API()
	if err != nil {
		return nil, err
	}
	return api.PostComment(ctx, m.ID(), text)
}

// Gallery resolves the photos and videos attached to a post or story.
type Gallery struct {
	media Media
}

// Iter lazily resolves each carousel entry in order, keeping the kinds asked
// for. The media info is fetched on the first pull.
func (g Gallery) Iter(ctx context.Context, wantVideo, wantImage bool) iter.Seq2[Resource, error] {
	return func(yield func(Resource, error) bool) {
		info, err := g.media.Info(ctx)
		if err != nil {
			yield(Resource{}, err)
			return
		}
		for r, err := range ResolveMany(mediaItems(info), wantVideo, wantImage) {
			if !yield(r, err) || err != nil {
				return
			}
		}
	}
}

// All collects Iter up to limit.
func (g Gallery) All(ctx context.Context, wantVideo, wantImage bool, limit paginate.Limit) ([]Resource, error) {
	return paginate.Collect(g.Iter(ctx, wantVideo, wantImage), limit)
}

func (g Gallery) IterImages(ctx context.Context) iter.Seq2[Resource, error] {
	return g.Iter(ctx, false, true)
}

func (g Gallery) Images(ctx context.Context, limit paginate.Limit) ([]Resource, error) {
	return paginate.Collect(g.IterImages(ctx), limit)
}

func (g Gallery) IterVideos(ctx context.Context) iter.Seq2[Resource, error] {
	return g.Iter(ctx, true, false)
}

func (g Gallery) Videos(ctx context.Context, limit paginate.Limit) ([]Resource, error) {
	return paginate.Collect(g.IterVideos(ctx), limit)
}

// Image returns the first photo, reporting false when there is none.
func (g Gallery) Image(ctx context.Context) (Resource, bool, error) {
	return first(g.IterImages(ctx))
}

// Video returns the first video, reporting false when there is none.
func (g Gallery) Video(ctx context.Context) (Resource, bool, error) {
	return first(g.IterVideos(ctx))
}

func first[T any](seq iter.Seq2[T, error]) (T, bool, error) {
	var zero T
	for v, err := range seq {
		if err != nil {
			return zero, false, err
		}
		return v, true, nil
	}
	return zero, false, nil
}
