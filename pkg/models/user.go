package models

import (
	"context"
	"fmt"
	"iter"
	"sort"

	"instapi/pkg/paginate"
	"instapi/pkg/wire"
)

// User is an account on the remote service.
type User struct {
	Entity
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	IsPrivate  bool   `json:"is_private"`
	IsVerified bool   `json:"is_verified"`

	b Binding
}

// UserSchema declares the wire keys of a user.
var UserSchema = EntitySchema.Extend("User",
	wire.Required("username"),
	wire.Required("full_name"),
	wire.Required("is_private"),
	wire.Required("is_verified"),
)

// NewUser decodes a user payload.
func NewUser(b Binding, data wire.Dict) (User, error) {
	u, err := wire.Create[User](data, UserSchema)
	if err != nil {
		return User{}, err
	}
	u.b = b
	return u, nil
}

func userDecoder(b Binding) func(wire.Dict) (User, error) {
	return func(d wire.Dict) (User, error) { return NewUser(b, d) }
}

// userFrom decodes the user object found under key.
func userFrom(b Binding, data wire.Dict, key string) (User, error) {
	obj, ok := wire.LookupDict(data, key)
	if !ok {
		return User{}, &wire.MissingFieldError{Type: "User", Field: key}
	}
	return NewUser(b, obj)
}

// Equal reports whether both users share a primary key.
func (u User) Equal(other User) bool {
	return u.PK == other.PK
}

// Binding returns the capability the user was created with.
func (u User) Binding() Binding {
	return u.b
}

// GetUser fetches a user by primary key.
func GetUser(ctx context.Context, b Binding, pk int64) (User, error) {
	api, err := b.API()
	if err != nil {
		return User{}, err
	}
	resp, err := api.UserInfo(ctx, pk)
	if err != nil {
		return User{}, err
	}
	return userFrom(b, resp, "user")
}

// UserFromUsername fetches a user by username.
func UserFromUsername(ctx context.Context, b Binding, username string) (User, error) {
	api, err := b.API()
	if err != nil {
		return User{}, err
	}
	resp, err := api.UsernameInfo(ctx, username)
	if err != nil {
		return User{}, err
	}
	return userFrom(b, resp, "user")
}

// Self fetches the authenticated user.
func Self(ctx context.Context, b Binding) (User, error) {
	api, err := b.API()
	if err != nil {
		return User{}, err
	}
	pk, err := currentPK(ctx, api)
	if err != nil {
		return User{}, err
	}
	return GetUser(ctx, b, pk)
}

func currentPK(ctx context.Context, api API) (int64, error) {
	resp, err := api.CurrentUser(ctx)
	if err != nil {
		return 0, err
	}
	raw, ok := wire.Lookup(resp, "user.pk")
	if !ok {
		return 0, &wire.MissingFieldError{Type: "User", Field: "user.pk"}
	}
	pk, err := decodeValue[PK](raw)
	if err != nil {
		return 0, fmt.Errorf("current user: %w", err)
	}
	return int64(pk), nil
}

// MatchUsername searches users by a username query. A bounded limit is sent
// to the remote as the result count.
func MatchUsername(ctx context.Context, b Binding, query string, limit paginate.Limit) ([]User, error) {
	api, err := b.API()
	if err != nil {
		return nil, err
	}
	count := 0
	if limit.Bounded() {
		if limit.N() < 0 {
			return nil, fmt.Errorf("%w: %d", paginate.ErrNegativeLimit, limit.N())
		}
		if limit.N() == 0 {
			return []User{}, nil
		}
		count = limit.N()
	}
	resp, err := api.SearchUsers(ctx, query, count)
	if err != nil {
		return nil, err
	}
	found, err := pageItems(resp, "users")
	if err != nil {
		return nil, err
	}
	users := paginate.Map(paginate.Slice(found), userDecoder(b))
	return paginate.Collect(users, limit)
}

// FullInfo returns the raw detail payload. Every call is a fresh request.
func (u User) FullInfo(ctx context.Context) (wire.Dict, error) {
	api, err := u.b.API()
	if err != nil {
		return nil, err
	}
	return api.UserDetailInfo(ctx, u.ID())
}

// Detail returns the user object inside the detail payload.
func (u User) Detail(ctx context.Context) (wire.Dict, error) {
	info, err := u.FullInfo(ctx)
	if err != nil {
		return nil, err
	}
	detail, ok := wire.LookupDict(info, "user_detail.user")
	if !ok {
		return nil, &wire.MissingFieldError{Type: "UserDetail", Field: "user_detail.user"}
	}
	return detail, nil
}

func detailField[T any](ctx context.Context, u User, key string) (T, error) {
	var zero T
	detail, err := u.Detail(ctx)
	if err != nil {
		return zero, err
	}
	v, ok := detail[key]
	if !ok {
		return zero, &wire.MissingFieldError{Type: "UserDetail", Field: key}
	}
	out, err := decodeValue[T](v)
	if err != nil {
		return zero, fmt.Errorf("user detail %s: %w", key, err)
	}
	return out, nil
}

// Biography fetches the profile text.
func (u User) Biography(ctx context.Context) (string, error) {
	return detailField[string](ctx, u, "biography")
}

// MediaCount fetches the number of published posts.
func (u User) MediaCount(ctx context.Context) (int64, error) {
	return detailField[int64](ctx, u, "media_count")
}

// FollowerCount fetches the number of followers.
func (u User) FollowerCount(ctx context.Context) (int64, error) {
	return detailField[int64](ctx, u, "follower_count")
}

// FollowingCount fetches the number of followed accounts.
func (u User) FollowingCount(ctx context.Context) (int64, error) {
	return detailField[int64](ctx, u, "following_count")
}

// requireSelf fails with ErrNotSelf unless u is the authenticated user.
func (u User) requireSelf(ctx context.Context) (API, error) {
	api, err := u.b.API()
	if err != nil {
		return nil, err
	}
	me, err := currentPK(ctx, api)
	if err != nil {
		return nil, err
	}
	if u.ID() != me {
		return nil, ErrNotSelf
	}
	return api, nil
}

// Follow makes u follow target. u must be the authenticated user.
func (u User) Follow(ctx context.Context, target User) error {
	api, err := u.requireSelf(ctx)
	if err != nil {
		return err
	}
	_, err = api.FriendshipsCreate(ctx, target.ID())
	return err
}

// Unfollow makes u stop following target. u must be the authenticated user.
func (u User) Unfollow(ctx context.Context, target User) error {
	api, err := u.requireSelf(ctx)
	if err != nil {
		return err
	}
	_, err = api.FriendshipsDestroy(ctx, target.ID())
	return err
}

// IterFollowers lazily lists the accounts following u.
func (u User) IterFollowers(ctx context.Context) iter.Seq2[User, error] {
	return listing(ctx, u.b,
		func(api API) paginate.Fetcher { return paginate.ByID(api.UserFollowers) },
		"users", userDecoder(u.b),
		paginate.WithSubject(u.ID()), paginate.WithRankToken(),
	)
}

// Followers collects IterFollowers up to limit.
func (u User) Followers(ctx context.Context, limit paginate.Limit) ([]User, error) {
	return paginate.Collect(u.IterFollowers(ctx), limit)
}

// IterFollowings lazily lists the accounts u follows.
func (u User) IterFollowings(ctx context.Context) iter.Seq2[User, error] {
	return listing(ctx, u.b,
		func(api API) paginate.Fetcher { return paginate.ByID(api.UserFollowing) },
		"users", userDecoder(u.b),
		paginate.WithSubject(u.ID()), paginate.WithRankToken(),
	)
}

// Followings collects IterFollowings up to limit.
func (u User) Followings(ctx context.Context, limit paginate.Limit) ([]User, error) {
	return paginate.Collect(u.IterFollowings(ctx), limit)
}

// IterFeeds lazily lists the posts published by u, newest first.
func (u User) IterFeeds(ctx context.Context) iter.Seq2[Feed, error] {
	return listing(ctx, u.b,
		func(api API) paginate.Fetcher { return paginate.ByID(api.UserFeed) },
		"items", feedDecoder(u.b),
		paginate.WithSubject(u.ID()),
	)
}

// Feeds collects IterFeeds up to limit.
func (u User) Feeds(ctx context.Context, limit paginate.Limit) ([]Feed, error) {
	return paginate.Collect(u.IterFeeds(ctx), limit)
}

// IterResources lazily lists the media of every post of u, in post order.
func (u User) IterResources(ctx context.Context, wantVideo, wantImage bool) iter.Seq2[Resource, error] {
	return flatten(u.IterFeeds(ctx), func(f Feed) iter.Seq2[Resource, error] {
		return f.Gallery().Iter(ctx, wantVideo, wantImage)
	})
}

// Resources collects IterResources up to limit.
func (u User) Resources(ctx context.Context, wantVideo, wantImage bool, limit paginate.Limit) ([]Resource, error) {
	return paginate.Collect(u.IterResources(ctx, wantVideo, wantImage), limit)
}

// IterImages lazily lists the photos of every post of u.
func (u User) IterImages(ctx context.Context) iter.Seq2[Resource, error] {
	return u.IterResources(ctx, false, true)
}

// Images collects IterImages up to limit.
func (u User) Images(ctx context.Context, limit paginate.Limit) ([]Resource, error) {
	return paginate.Collect(u.IterImages(ctx), limit)
}

// IterVideos lazily lists the videos of every post of u.
func (u User) IterVideos(ctx context.Context) iter.Seq2[Resource, error] {
	return u.IterResources(ctx, true, false)
}

// Videos collects IterVideos up to limit.
func (u User) Videos(ctx context.Context, limit paginate.Limit) ([]Resource, error) {
	return paginate.Collect(u.IterVideos(ctx), limit)
}

// IterStories lists the stories u currently has published.
func (u User) IterStories(ctx context.Context) iter.Seq2[Story, error] {
	api, err := u.b.API()
	if err != nil {
		return paginate.Fail[Story](err)
	}
	return func(yield func(Story, error) bool) {
		resp, err := api.UserStoryFeed(ctx, u.ID())
		if err != nil {
			yield(Story{}, err)
			return
		}
		for s, err := range paginate.Map(paginate.Slice(wire.Items(resp, "reel.items")), storyDecoder(u.b)) {
			if !yield(s, err) || err != nil {
				return
			}
		}
	}
}

// Stories collects IterStories up to limit.
func (u User) Stories(ctx context.Context, limit paginate.Limit) ([]Story, error) {
	return paginate.Collect(u.IterStories(ctx), limit)
}

// IterStoryResources lazily lists the media of every current story of u.
func (u User) IterStoryResources(ctx context.Context, wantVideo, wantImage bool) iter.Seq2[Resource, error] {
	return flatten(u.IterStories(ctx), func(s Story) iter.Seq2[Resource, error] {
		return s.Gallery().Iter(ctx, wantVideo, wantImage)
	})
}

// StoryResources collects IterStoryResources up to limit.
func (u User) StoryResources(ctx context.Context, wantVideo, wantImage bool, limit paginate.Limit) ([]Resource, error) {
	return paginate.Collect(u.IterStoryResources(ctx, wantVideo, wantImage), limit)
}

// TotalLikes sums the listing-time like counts of every post of u.
func (u User) TotalLikes(ctx context.Context) (int64, error) {
	var total int64
	for f, err := range u.IterFeeds(ctx) {
		if err != nil {
			return total, err
		}
		total += f.LikeCount
	}
	return total, nil
}

// TotalComments sums the listing-time comment counts of every post of u.
func (u User) TotalComments(ctx context.Context) (int64, error) {
	var total int64
	for f, err := range u.IterFeeds(ctx) {
		if err != nil {
			return total, err
		}
		total += f.CommentCount
	}
	return total, nil
}

// LikesChain lists every like on every post of u, post by post. A user who
// liked several posts appears once per post.
func (u User) LikesChain(ctx context.Context) iter.Seq2[User, error] {
	return flatten(u.IterFeeds(ctx), func(f Feed) iter.Seq2[User, error] {
		return f.IterLikes(ctx)
	})
}

// UserCount pairs a user with a number of occurrences.
type UserCount struct {
	User  User
	Count int
}

// LikesStatistic counts how many posts of u each liker has liked, most
// active first. Ties are ordered by primary key.
func (u User) LikesStatistic(ctx context.Context) ([]UserCount, error) {
	index := map[int64]int{}
	var stats []UserCount
	for liker, err := range u.LikesChain(ctx) {
		if err != nil {
			return nil, err
		}
		if i, ok := index[liker.Key()]; ok {
			stats[i].Count++
			continue
		}
		index[liker.Key()] = len(stats)
		stats = append(stats, UserCount{User: liker, Count: 1})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].User.PK < stats[j].User.PK
	})
	return stats, nil
}

// IterLikedByUser lazily lists the posts of u that liker has liked.
func (u User) IterLikedByUser(ctx context.Context, liker User) iter.Seq2[Feed, error] {
	return func(yield func(Feed, error) bool) {
		for f, err := range u.IterFeeds(ctx) {
			if err != nil {
				yield(Feed{}, err)
				return
			}
			liked, err := f.LikedBy(ctx, liker)
			if err != nil {
				yield(Feed{}, err)
				return
			}
			if liked && !yield(f, nil) {
				return
			}
		}
	}
}

// LikedByUser collects IterLikedByUser up to limit.
func (u User) LikedByUser(ctx context.Context, liker User, limit paginate.Limit) ([]Feed, error) {
	return paginate.Collect(u.IterLikedByUser(ctx, liker), limit)
}
