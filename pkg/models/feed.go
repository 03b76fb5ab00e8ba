package models

import (
	"context"
	"iter"

	"instapi/pkg/paginate"
	"instapi/pkg/wire"
)

// Feed is a published post. The counts are a snapshot taken when the post
// was listed.
type Feed struct {
	Media
	LikeCount    int64 `json:"like_count"`
	CommentCount int64 `json:"comment_count"`
}

// FeedSchema declares the wire keys of a post.
var FeedSchema = MediaSchema.Extend("Feed",
	wire.Required("like_count"),
	wire.Optional("comment_count"),
)

// NewFeed decodes a post payload.
func NewFeed(b Binding, data wire.Dict) (Feed, error) {
	f, err := wire.Create[Feed](data, FeedSchema)
	if err != nil {
		return Feed{}, err
	}
	f.attach(b)
	return f, nil
}

func feedDecoder(b Binding) func(wire.Dict) (Feed, error) {
	return func(d wire.Dict) (Feed, error) { return NewFeed(b, d) }
}

// Equal reports whether both posts share a primary key.
func (f Feed) Equal(other Feed) bool {
	return f.PK == other.PK
}

// IterTimeline lazily lists the posts of the authenticated user's home feed.
// Entries that are not posts are skipped.
func IterTimeline(ctx context.Context, b Binding) iter.Seq2[Feed, error] {
	api, err := b.API()
	if err != nil {
		return paginate.Fail[Feed](err)
	}
	pages := paginate.Pages(ctx, paginate.Plain(api.FeedTimeline))
	posts := paginate.FlatMap(pages, func(page wire.Dict) ([]wire.Dict, error) {
		entries, err := pageItems(page, "feed_items")
		if err != nil {
			return nil, err
		}
		var out []wire.Dict
		for _, entry := range entries {
			if post, ok := wire.LookupDict(entry, "media_or_ad"); ok {
				out = append(out, post)
			}
		}
		return out, nil
	})
	return paginate.Map(posts, feedDecoder(b))
}

// Timeline collects IterTimeline up to limit.
func Timeline(ctx context.Context, b Binding, limit paginate.Limit) ([]Feed, error) {
	return paginate.Collect(IterTimeline(ctx, b), limit)
}

// Gallery exposes the photos and videos of the post.
func (f Feed) Gallery() Gallery {
	return Gallery{media: f.Media}
}

// Caption returns the caption text, empty when the post has none.
func (f Feed) Caption(ctx context.Context) (string, error) {
	info, err := f.Info(ctx)
	if err != nil {
		return "", err
	}
	text, ok := wire.Lookup(info, "caption.text")
	if !ok {
		return "", nil
	}
	s, _ := text.(string)
	return s, nil
}

// UserTags returns the users tagged in the post.
func (f Feed) UserTags(ctx context.Context) ([]User, error) {
	info, err := f.Info(ctx)
	if err != nil {
		return nil, err
	}
	tags := wire.Items(info, "usertags.in")
	users := make([]User, 0, len(tags))
	for _, tag := range tags {
		u, err := userFrom(f.b, tag, "user")
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// IterLikes lazily lists the users who liked the post.
func (f Feed) IterLikes(ctx context.Context) iter.Seq2[User, error] {
	return listing(ctx, f.b,
		func(api API) paginate.Fetcher { return paginate.ByID(api.MediaLikers) },
		"users", userDecoder(f.b),
		paginate.WithSubject(f.ID()),
	)
}

// Likes collects IterLikes up to limit.
func (f Feed) Likes(ctx context.Context, limit paginate.Limit) ([]User, error) {
	return paginate.Collect(f.IterLikes(ctx), limit)
}

// LikedBy reports whether u liked the post. Paging stops at the first page
// that contains u.
func (f Feed) LikedBy(ctx context.Context, u User) (bool, error) {
	api, err := f.b.API()
	if err != nil {
		return false, err
	}
	pages := paginate.Pages(ctx, paginate.ByID(api.MediaLikers), paginate.WithSubject(f.ID()))
	for page, err := range pages {
		if err != nil {
			return false, err
		}
		likers, err := pageItems(page, "users")
		if err != nil {
			return false, err
		}
		for _, liker := range likers {
			pk, err := decodeValue[PK](liker["pk"])
			if err == nil && pk == u.PK {
				return true, nil
			}
		}
	}
	return false, nil
}

// Like likes the post.
func (f Feed) Like(ctx context.Context) error {
	api, err := f.b.API()
	if err != nil {
		return err
	}
	_, err = api.PostLike(ctx, f.ID())
	return err
}

// Unlike removes the like from the post.
func (f Feed) Unlike(ctx context.Context) error {
	api, err := f.b.API()
	if err != nil {
		return err
	}
	_, err = api.DeleteLike(ctx, f.ID())
	return err
}

// IterComments lazily lists the comments of the post, oldest page first.
func (f Feed) IterComments(ctx context.Context) iter.Seq2[Comment, error] {
	return listing(ctx, f.b,
		func(api API) paginate.Fetcher { return paginate.ByID(api.MediaComments) },
		"comments", commentDecoder(f.b),
		paginate.WithSubject(f.ID()),
	)
}

// Comments collects IterComments up to limit.
func (f Feed) Comments(ctx context.Context, limit paginate.Limit) ([]Comment, error) {
	return paginate.Collect(f.IterComments(ctx), limit)
}
