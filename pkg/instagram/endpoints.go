package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"instapi/pkg/models"
	"instapi/pkg/wire"
)

var _ models.API = (*Client)(nil)
var _ models.Downloader = (*Client)(nil)

// EncodeRecipients renders user ids the way the direct endpoints expect:
// depth 2 for sending ([[1,2,3]]), depth 1 for thread lookup ([5]).
func EncodeRecipients(ids []int64, depth int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Repeat("[", depth) + strings.Join(parts, ",") + strings.Repeat("]", depth)
}

func withParams(params url.Values, extra map[string]string) url.Values {
	out := url.Values{}
	for k, v := range params {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range extra {
		if !out.Has(k) {
			out.Set(k, v)
		}
	}
	return out
}

func (c *Client) UserInfo(ctx context.Context, pk int64) (wire.Dict, error) {
	return c.get(ctx, fmt.Sprintf("users/%d/info/", pk), nil)
}

func (c *Client) UsernameInfo(ctx context.Context, username string) (wire.Dict, error) {
	return c.get(ctx, fmt.Sprintf("users/%s/usernameinfo/", url.PathEscape(username)), nil)
}

func (c *Client) UserDetailInfo(ctx context.Context, pk int64) (wire.Dict, error) {
	return c.get(ctx, fmt.Sprintf("users/%d/full_detail_info/", pk), nil)
}

func (c *Client) CurrentUser(ctx context.Context) (wire.Dict, error) {
	return c.get(ctx, "accounts/current_user/", url.Values{"edit": {"true"}})
}

// SearchUsers searches accounts by name. A count of zero leaves the page
// size to the server.
func (c *Client) SearchUsers(ctx context.Context, query string, count int) (wire.Dict, error) {
	q := url.Values{"q": {query}}
	if count > 0 {
		q.Set("count", strconv.Itoa(count))
	}
	return c.get(ctx, "users/search/", q)
}

func (c *Client) UserFollowers(ctx context.Context, pk int64, params url.Values) (wire.Dict, error) {
	return c.get(ctx, fmt.Sprintf("friendships/%d/followers/", pk), params)
}

func (c *Client) UserFollowing(ctx context.Context, pk int64, params url.Values) (wire.Dict, error) {
	return c.get(ctx, fmt.Sprintf("friendships/%d/following/", pk), params)
}

func (c *Client) UserFeed(ctx context.Context, pk int64, params url.Values) (wire.Dict, error) {
	return c.get(ctx, fmt.Sprintf("feed/user/%d/", pk), params)
}

func (c *Client) UserStoryFeed(ctx context.Context, pk int64) (wire.Dict, error) {
	return c.get(ctx, fmt.Sprintf("feed/user/%d/story/", pk), nil)
}

func (c *Client) FeedTimeline(ctx context.Context, params url.Values) (wire.Dict, error) {
	return c.get(ctx, "feed/timeline/", params)
}

func (c *Client) MediaInfo(ctx context.Context, pk int64) (wire.Dict, error) {
	return c.get(ctx, fmt.Sprintf("media/%d/info/", pk), nil)
}

func (c *Client) MediaLikers(ctx context.Context, pk int64, params url.Values) (wire.Dict, error) {
	return c.get(ctx, fmt.Sprintf("media/%d/likers/", pk), params)
}

// MediaComments lists comments without threaded replies.
func (c *Client) MediaComments(ctx context.Context, pk int64, params url.Values) (wire.Dict, error) {
	q := withParams(params, map[string]string{"can_support_threading": "false"})
	return c.get(ctx, fmt.Sprintf("media/%d/comments/", pk), q)
}

// MediaSeen marks story items as viewed. Each item needs its id, taken_at
// and owner pk.
func (c *Client) MediaSeen(ctx context.Context, items []wire.Dict) (wire.Dict, error) {
	now := time.Now().Unix()
	reels := make(map[string][]string, len(items))
	for _, item := range items {
		id, ok := wire.Lookup(item, "id")
		if !ok {
			return nil, &wire.MissingFieldError{Type: "StoryItem", Field: "id"}
		}
		owner, ok := wire.Lookup(item, "user.pk")
		if !ok {
			return nil, &wire.MissingFieldError{Type: "StoryItem", Field: "user.pk"}
		}
		takenAt, ok := wire.Lookup(item, "taken_at")
		if !ok {
			return nil, &wire.MissingFieldError{Type: "StoryItem", Field: "taken_at"}
		}
		key := fmt.Sprintf("%v_%v", id, owner)
		reels[key] = append(reels[key], fmt.Sprintf("%v_%d", takenAt, now))
	}

	form, err := c.signedForm(map[string]any{"reels": reels})
	if err != nil {
		return nil, err
	}
	return c.post(ctx, "../v2/media/seen/", url.Values{"reel": {"1"}, "reel_skipped": {"0"}}, form)
}

func (c *Client) mediaAction(ctx context.Context, pk int64, action string, extra map[string]any) (wire.Dict, error) {
	data := map[string]any{"media_id": strconv.FormatInt(pk, 10)}
	for k, v := range extra {
		data[k] = v
	}
	form, err := c.signedForm(data)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, fmt.Sprintf("media/%d/%s/", pk, action), nil, form)
}

func (c *Client) PostLike(ctx context.Context, pk int64) (wire.Dict, error) {
	return c.mediaAction(ctx, pk, "like", nil)
}

func (c *Client) DeleteLike(ctx context.Context, pk int64) (wire.Dict, error) {
	return c.mediaAction(ctx, pk, "unlike", nil)
}

func (c *Client) PostComment(ctx context.Context, pk int64, text string) (wire.Dict, error) {
	return c.mediaAction(ctx, pk, "comment", map[string]any{"comment_text": text})
}

func (c *Client) CommentLike(ctx context.Context, pk int64) (wire.Dict, error) {
	return c.mediaAction(ctx, pk, "comment_like", nil)
}

func (c *Client) CommentUnlike(ctx context.Context, pk int64) (wire.Dict, error) {
	return c.mediaAction(ctx, pk, "comment_unlike", nil)
}

func (c *Client) friendship(ctx context.Context, action string, pk int64) (wire.Dict, error) {
	form, err := c.signedForm(map[string]any{"user_id": strconv.FormatInt(pk, 10)})
	if err != nil {
		return nil, err
	}
	return c.post(ctx, fmt.Sprintf("friendships/%s/%d/", action, pk), nil, form)
}

func (c *Client) FriendshipsCreate(ctx context.Context, pk int64) (wire.Dict, error) {
	return c.friendship(ctx, "create", pk)
}

func (c *Client) FriendshipsDestroy(ctx context.Context, pk int64) (wire.Dict, error) {
	return c.friendship(ctx, "destroy", pk)
}

func (c *Client) DirectInbox(ctx context.Context, params url.Values) (wire.Dict, error) {
	return c.get(ctx, "direct_v2/inbox/", params)
}

func (c *Client) DirectThread(ctx context.Context, threadID string, params url.Values) (wire.Dict, error) {
	return c.get(ctx, fmt.Sprintf("direct_v2/threads/%s/", url.PathEscape(threadID)), params)
}

func (c *Client) DirectGetByParticipants(ctx context.Context, pks []int64) (wire.Dict, error) {
	q := url.Values{"recipient_users": {EncodeRecipients(pks, 1)}}
	return c.get(ctx, "direct_v2/threads/get_by_participants/", q)
}

// DirectSendItem broadcasts one message. The thread is created when
// item.ThreadID is empty.
func (c *Client) DirectSendItem(ctx context.Context, item models.SendItem) (wire.Dict, error) {
	if item.Type == "" {
		return nil, errors.New("direct item type is required")
	}
	form := c.authParams()
	form.Set("action", "send_item")
	form.Set("recipient_users", EncodeRecipients(item.Recipients, 2))
	if item.ThreadID != "" {
		form.Set("thread_ids", "["+item.ThreadID+"]")
	}
	for k, v := range item.Payload {
		form.Set(k, v)
	}
	return c.post(ctx, fmt.Sprintf("direct_v2/threads/broadcast/%s/", item.Type), nil, form)
}

// authParams are the identity fields every mutation carries.
func (c *Client) authParams() url.Values {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v := url.Values{}
	v.Set("_uuid", c.device.UUID)
	v.Set("_csrftoken", c.cookie("csrftoken"))
	if c.userID != 0 {
		v.Set("_uid", strconv.FormatInt(c.userID, 10))
	}
	return v
}

// signedForm wraps data with the identity fields into a signed_body form.
func (c *Client) signedForm(data map[string]any) (url.Values, error) {
	body := map[string]any{}
	for k, v := range c.authParams() {
		body[k] = v[0]
	}
	for k, v := range data {
		body[k] = v
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return url.Values{"signed_body": {"SIGNATURE." + string(raw)}}, nil
}
