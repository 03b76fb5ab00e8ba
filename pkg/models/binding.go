package models

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"instapi/pkg/wire"
)

var (
	// ErrClientNotInitialized is returned by every remote operation on an
	// entity whose binding carries no client.
	ErrClientNotInitialized = errors.New("client is not initialized")

	// ErrNotSelf is returned when a follow or unfollow is attempted by a user
	// other than the authenticated one.
	ErrNotSelf = errors.New("only the authenticated user can change friendships")
)

type bindingState uint8

const (
	stateUnbound bindingState = iota
	stateBound
	stateInert
)

// Binding is the capability entities use to reach the remote client. The zero
// value is unbound.
type Binding struct {
	state bindingState
	api   API
}

// Bind returns a binding backed by api.
func Bind(api API) Binding {
	if api == nil {
		return Binding{}
	}
	return Binding{state: stateBound, api: api}
}

// Unbound returns a binding that fails every remote operation with
// ErrClientNotInitialized.
func Unbound() Binding {
	return Binding{}
}

// Inert returns a binding whose remote operations succeed with empty
// payloads. It exists for test isolation.
func Inert() Binding {
	return Binding{state: stateInert, api: inertAPI{}}
}

// IsBound reports whether remote operations can be issued.
func (b Binding) IsBound() bool {
	return b.state != stateUnbound
}

func (b Binding) String() string {
	switch b.state {
	case stateBound:
		return "bound"
	case stateInert:
		return "inert"
	default:
		return "unbound"
	}
}

// API returns the bound client.
func (b Binding) API() (API, error) {
	if b.state == stateUnbound || b.api == nil {
		return nil, ErrClientNotInitialized
	}
	return b.api, nil
}

type inertAPI struct{}

func empty() (wire.Dict, error) { return wire.Dict{}, nil }

// emptyList answers a listing endpoint with a page holding no items.
func emptyList(path string) (wire.Dict, error) {
	keys := strings.Split(path, ".")
	page := wire.Dict{keys[len(keys)-1]: []any{}}
	for i := len(keys) - 2; i >= 0; i-- {
		page = wire.Dict{keys[i]: page}
	}
	return page, nil
}

func (inertAPI) UserInfo(context.Context, int64) (wire.Dict, error)       { return empty() }
func (inertAPI) UsernameInfo(context.Context, string) (wire.Dict, error)  { return empty() }
func (inertAPI) UserDetailInfo(context.Context, int64) (wire.Dict, error) { return empty() }
func (inertAPI) CurrentUser(context.Context) (wire.Dict, error)           { return empty() }
func (inertAPI) SearchUsers(context.Context, string, int) (wire.Dict, error) {
	return emptyList("users")
}
func (inertAPI) UserFollowers(context.Context, int64, url.Values) (wire.Dict, error) {
	return emptyList("users")
}
func (inertAPI) UserFollowing(context.Context, int64, url.Values) (wire.Dict, error) {
	return emptyList("users")
}
func (inertAPI) UserFeed(context.Context, int64, url.Values) (wire.Dict, error) {
	return emptyList("items")
}
func (inertAPI) UserStoryFeed(context.Context, int64) (wire.Dict, error) { return empty() }
func (inertAPI) FeedTimeline(context.Context, url.Values) (wire.Dict, error) {
	return emptyList("feed_items")
}
func (inertAPI) MediaInfo(context.Context, int64) (wire.Dict, error) { return empty() }
func (inertAPI) MediaLikers(context.Context, int64, url.Values) (wire.Dict, error) {
	return emptyList("users")
}
func (inertAPI) MediaComments(context.Context, int64, url.Values) (wire.Dict, error) {
	return emptyList("comments")
}
func (inertAPI) MediaSeen(context.Context, []wire.Dict) (wire.Dict, error)     { return empty() }
func (inertAPI) PostLike(context.Context, int64) (wire.Dict, error)            { return empty() }
func (inertAPI) DeleteLike(context.Context, int64) (wire.Dict, error)          { return empty() }
func (inertAPI) PostComment(context.Context, int64, string) (wire.Dict, error) { return empty() }
func (inertAPI) CommentLike(context.Context, int64) (wire.Dict, error)         { return empty() }
func (inertAPI) CommentUnlike(context.Context, int64) (wire.Dict, error)       { return empty() }
func (inertAPI) FriendshipsCreate(context.Context, int64) (wire.Dict, error)   { return empty() }
func (inertAPI) FriendshipsDestroy(context.Context, int64) (wire.Dict, error)  { return empty() }
func (inertAPI) DirectInbox(context.Context, url.Values) (wire.Dict, error) {
	return emptyList("inbox.threads")
}
func (inertAPI) DirectThread(context.Context, string, url.Values) (wire.Dict, error) {
	return emptyList("thread.items")
}
func (inertAPI) DirectGetByParticipants(context.Context, []int64) (wire.Dict, error) {
	return empty()
}
func (inertAPI) DirectSendItem(context.Context, SendItem) (wire.Dict, error) { return empty() }
