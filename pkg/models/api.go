package models

import (
	"context"
	"io"
	"net/url"

	"instapi/pkg/wire"
)

// ItemType names a direct message kind accepted by the broadcast endpoint.
type ItemType string

const (
	ItemText       ItemType = "text"
	ItemLink       ItemType = "link"
	ItemMediaShare ItemType = "media_share"
	ItemHashtag    ItemType = "hashtag"
	ItemProfile    ItemType = "profile"
)

// SendItem is one outgoing direct message. Recipients are user PKs; ThreadID
// is empty when the thread does not exist yet.
type SendItem struct {
	Type       ItemType
	Recipients []int64
	ThreadID   string
	Payload    map[string]string
}

// API is the remote client collaborator. Every method is a single
// authenticated request returning the decoded response body. Listing methods
// accept the pagination parameters (cursor, rank_token) in params.
type API interface {
	UserInfo(ctx context.Context, pk int64) (wire.Dict, error)
	UsernameInfo(ctx context.Context, username string) (wire.Dict, error)
	UserDetailInfo(ctx context.Context, pk int64) (wire.Dict, error)
	CurrentUser(ctx context.Context) (wire.Dict, error)
	SearchUsers(ctx context.Context, query string, count int) (wire.Dict, error)
	UserFollowers(ctx context.Context, pk int64, params url.Values) (wire.Dict, error)
	UserFollowing(ctx context.Context, pk int64, params url.Values) (wire.Dict, error)
	UserFeed(ctx context.Context, pk int64, params url.Values) (wire.Dict, error)
	UserStoryFeed(ctx context.Context, pk int64) (wire.Dict, error)
	FeedTimeline(ctx context.Context, params url.Values) (wire.Dict, error)

	MediaInfo(ctx context.Context, pk int64) (wire.Dict, error)
	MediaLikers(ctx context.Context, pk int64, params url.Values) (wire.Dict, error)
	MediaComments(ctx context.Context, pk int64, params url.Values) (wire.Dict, error)
	MediaSeen(ctx context.Context, items []wire.Dict) (wire.Dict, error)
	PostLike(ctx context.Context, pk int64) (wire.Dict, error)
	DeleteLike(ctx context.Context, pk int64) (wire.Dict, error)
	PostComment(ctx context.Context, pk int64, text string) (wire.Dict, error)
	CommentLike(ctx context.Context, pk int64) (wire.Dict, error)
	CommentUnlike(ctx context.Context, pk int64) (wire.Dict, error)

	FriendshipsCreate(ctx context.Context, pk int64) (wire.Dict, error)
	FriendshipsDestroy(ctx context.Context, pk int64) (wire.Dict, error)

	DirectInbox(ctx context.Context, params url.Values) (wire.Dict, error)
	DirectThread(ctx context.Context, threadID string, params url.Values) (wire.Dict, error)
	DirectGetByParticipants(ctx context.Context, pks []int64) (wire.Dict, error)
	DirectSendItem(ctx context.Context, item SendItem) (wire.Dict, error)
}

// Downloader fetches the bytes behind a media URL.
type Downloader interface {
	Download(ctx context.Context, rawURL string) (io.ReadCloser, error)
}
