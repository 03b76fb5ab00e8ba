package models

import (
	"context"
	"fmt"
	"net/url"

	"instapi/pkg/wire"
)

// fakeAPI serves canned payloads and records every request. Methods it does
// not override fall back to the inert client.
type fakeAPI struct {
	inertAPI

	me     int64
	users  map[int64]wire.Dict
	pages  map[string][]wire.Dict
	single map[string]wire.Dict
	errs   map[string]error

	calls  []string
	params map[string][]url.Values
	sent   []SendItem
	seen   [][]wire.Dict
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		users:  map[int64]wire.Dict{},
		pages:  map[string][]wire.Dict{},
		single: map[string]wire.Dict{},
		errs:   map[string]error{},
		params: map[string][]url.Values{},
	}
}

func (f *fakeAPI) count(key string) int {
	n := 0
	for _, c := range f.calls {
		if c == key {
			n++
		}
	}
	return n
}

func (f *fakeAPI) respond(key string) (wire.Dict, error) {
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if d, ok := f.single[key]; ok {
		return d, nil
	}
	return wire.Dict{}, nil
}

// page serves the page a request's cursor points at: no cursor gets the
// first page, otherwise the page after the one that handed out the cursor.
// Errors keyed "<key>#<n>" fail the n-th page.
func (f *fakeAPI) page(key string, params url.Values) (wire.Dict, error) {
	f.calls = append(f.calls, key)
	f.params[key] = append(f.params[key], params)

	pages := f.pages[key]
	n := 1
	if cursor := requestCursor(params); cursor != "" {
		n = 0
		for i, p := range pages {
			if next, ok := pageCursor(p); ok && next == cursor {
				n = i + 2
				break
			}
		}
		if n == 0 {
			return nil, fmt.Errorf("%s: unknown cursor %q", key, cursor)
		}
	}
	if err, ok := f.errs[fmt.Sprintf("%s#%d", key, n)]; ok {
		return nil, err
	}
	if n > len(pages) {
		return wire.Dict{}, nil
	}
	return pages[n-1], nil
}

func requestCursor(params url.Values) string {
	if c := params.Get("max_id"); c != "" {
		return c
	}
	return params.Get("cursor")
}

func pageCursor(page wire.Dict) (string, bool) {
	for _, path := range []string{"next_max_id", "inbox.oldest_cursor", "thread.oldest_cursor"} {
		if v, ok := wire.Lookup(page, path); ok && v != nil {
			return fmt.Sprint(v), true
		}
	}
	return "", false
}

func (f *fakeAPI) UserInfo(_ context.Context, pk int64) (wire.Dict, error) {
	key := fmt.Sprintf("UserInfo/%d", pk)
	f.calls = append(f.calls, key)
	if u, ok := f.users[pk]; ok {
		return wire.Dict{"user": u}, nil
	}
	return nil, fmt.Errorf("user %d not found", pk)
}

func (f *fakeAPI) UsernameInfo(_ context.Context, username string) (wire.Dict, error) {
	f.calls = append(f.calls, "UsernameInfo/"+username)
	for _, u := range f.users {
		if u["username"] == username {
			return wire.Dict{"user": u}, nil
		}
	}
	return nil, fmt.Errorf("user %q not found", username)
}

func (f *fakeAPI) UserDetailInfo(_ context.Context, pk int64) (wire.Dict, error) {
	return f.respond(fmt.Sprintf("UserDetailInfo/%d", pk))
}

func (f *fakeAPI) CurrentUser(context.Context) (wire.Dict, error) {
	f.calls = append(f.calls, "CurrentUser")
	return wire.Dict{"user": userDict(f.me)}, nil
}

func (f *fakeAPI) SearchUsers(_ context.Context, query string, count int) (wire.Dict, error) {
	key := fmt.Sprintf("SearchUsers/%s/%d", query, count)
	f.calls = append(f.calls, key)
	return f.single["SearchUsers"], nil
}

func (f *fakeAPI) UserFollowers(_ context.Context, pk int64, params url.Values) (wire.Dict, error) {
	return f.page(fmt.Sprintf("UserFollowers/%d", pk), params)
}

func (f *fakeAPI) UserFollowing(_ context.Context, pk int64, params url.Values) (wire.Dict, error) {
	return f.page(fmt.Sprintf("UserFollowing/%d", pk), params)
}

func (f *fakeAPI) UserFeed(_ context.Context, pk int64, params url.Values) (wire.Dict, error) {
	return f.page(fmt.Sprintf("UserFeed/%d", pk), params)
}

func (f *fakeAPI) UserStoryFeed(_ context.Context, pk int64) (wire.Dict, error) {
	return f.respond(fmt.Sprintf("UserStoryFeed/%d", pk))
}

func (f *fakeAPI) FeedTimeline(_ context.Context, params url.Values) (wire.Dict, error) {
	return f.page("FeedTimeline", params)
}

func (f *fakeAPI) MediaInfo(_ context.Context, pk int64) (wire.Dict, error) {
	return f.respond(fmt.Sprintf("MediaInfo/%d", pk))
}

func (f *fakeAPI) MediaLikers(_ context.Context, pk int64, params url.Values) (wire.Dict, error) {
	return f.page(fmt.Sprintf("MediaLikers/%d", pk), params)
}

func (f *fakeAPI) MediaComments(_ context.Context, pk int64, params url.Values) (wire.Dict, error) {
	return f.page(fmt.Sprintf("MediaComments/%d", pk), params)
}

func (f *fakeAPI) MediaSeen(_ context.Context, items []wire.Dict) (wire.Dict, error) {
	f.seen = append(f.seen, items)
	return f.respond("MediaSeen")
}

func (f *fakeAPI) PostLike(_ context.Context, pk int64) (wire.Dict, error) {
	return f.respond(fmt.Sprintf("PostLike/%d", pk))
}

func (f *fakeAPI) CommentLike(_ context.Context, pk int64) (wire.Dict, error) {
	return f.respond(fmt.Sprintf("CommentLike/%d", pk))
}

func (f *fakeAPI) CommentUnlike(_ context.Context, pk int64) (wire.Dict, error) {
	return f.respond(fmt.Sprintf("CommentUnlike/%d", pk))
}

func (f *fakeAPI) DeleteLike(_ context.Context, pk int64) (wire.Dict, error) {
	return f.respond(fmt.Sprintf("DeleteLike/%d", pk))
}

func (f *fakeAPI) PostComment(_ context.Context, pk int64, text string) (wire.Dict, error) {
	return f.respond(fmt.Sprintf("PostComment/%d/%s", pk, text))
}

func (f *fakeAPI) FriendshipsCreate(_ context.Context, pk int64) (wire.Dict, error) {
	return f.respond(fmt.Sprintf("FriendshipsCreate/%d", pk))
}

func (f *fakeAPI) FriendshipsDestroy(_ context.Context, pk int64) (wire.Dict, error) {
	return f.respond(fmt.Sprintf("FriendshipsDestroy/%d", pk))
}

func (f *fakeAPI) DirectInbox(_ context.Context, params url.Values) (wire.Dict, error) {
	return f.page("DirectInbox", params)
}

func (f *fakeAPI) DirectThread(_ context.Context, threadID string, params url.Values) (wire.Dict, error) {
	return f.page("DirectThread/"+threadID, params)
}

func (f *fakeAPI) DirectGetByParticipants(_ context.Context, pks []int64) (wire.Dict, error) {
	return f.respond(fmt.Sprintf("DirectGetByParticipants/%v", pks))
}

func (f *fakeAPI) DirectSendItem(_ context.Context, item SendItem) (wire.Dict, error) {
	f.sent = append(f.sent, item)
	return f.respond("DirectSendItem")
}

func userDict(pk int64) wire.Dict {
	return wire.Dict{
		"pk":          pk,
		"username":    fmt.Sprintf("user%d", pk),
		"full_name":   fmt.Sprintf("User %d", pk),
		"is_private":  false,
		"is_verified": false,
	}
}

func userDicts(from, to int64) []any {
	out := make([]any, 0, to-from+1)
	for pk := from; pk <= to; pk++ {
		out = append(out, userDict(pk))
	}
	return out
}

func imageItem(candidates ...Candidate) wire.Dict {
	list := make([]any, len(candidates))
	for i, c := range candidates {
		list[i] = wire.Dict{"width": c.Width, "height": c.Height, "url": c.URL}
	}
	return wire.Dict{"image_versions2": wire.Dict{"candidates": list}}
}

func videoItem(candidates ...Candidate) wire.Dict {
	list := make([]any, len(candidates))
	for i, c := range candidates {
		list[i] = wire.Dict{"width": c.Width, "height": c.Height, "url": c.URL}
	}
	return wire.Dict{"video_versions": list}
}
