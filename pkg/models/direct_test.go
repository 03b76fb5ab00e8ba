package models

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instapi/pkg/paginate"
	"instapi/pkg/wire"
)

func threadDict(id string, pks ...int64) wire.Dict {
	users := make([]any, len(pks))
	for i, pk := range pks {
		users[i] = userDict(pk)
	}
	return wire.Dict{
		"thread_id":    id,
		"thread_title": "chat " + id,
		"thread_type":  "private",
		"is_group":     len(pks) > 1,
		"users":        users,
	}
}

func messageDict(id string, sender int64) wire.Dict {
	return wire.Dict{
		"item_id":   id,
		"timestamp": "1700000000000000",
		"item_type": "text",
		"user_id":   sender,
		"text":      "hello",
	}
}

func TestDirectsFollowInboxCursor(t *testing.T) {
	api := newFakeAPI()
	api.pages["DirectInbox"] = []wire.Dict{
		{"inbox": wire.Dict{"threads": []any{threadDict("t1", 2)}, "oldest_cursor": "o1"}},
		{"inbox": wire.Dict{"threads": []any{threadDict("t2", 3, 4)}}},
	}

	threads, err := Directs(context.Background(), Bind(api), paginate.NoLimit)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, StringID("t1"), threads[0].ThreadID)
	assert.True(t, threads[1].IsGroup)
	assert.Len(t, threads[1].Users, 2)

	params := api.params["DirectInbox"]
	require.Len(t, params, 2)
	assert.Equal(t, "o1", params[1].Get("cursor"))
	assert.False(t, params[1].Has("max_id"))
}

func TestDirectMessagesResolveSender(t *testing.T) {
	api := newFakeAPI()
	api.users[2] = userDict(2)
	api.pages["DirectThread/t1"] = []wire.Dict{
		{"thread": wire.Dict{"items": []any{messageDict("m1", 2)}, "oldest_cursor": "c"}},
		{"thread": wire.Dict{"items": []any{messageDict("m2", 2)}}},
	}
	d, err := NewDirect(Bind(api), threadDict("t1", 2))
	require.NoError(t, err)

	msgs, err := d.Messages(context.Background(), paginate.NoLimit)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, StringID("m1"), msgs[0].ItemID)
	assert.Equal(t, "user2", msgs[0].User.Username)
	assert.Equal(t, int64(1700000000), msgs[0].Timestamp.Time().Unix())
	assert.Equal(t, "c", api.params["DirectThread/t1"][1].Get("cursor"))
}

func TestMessageWireForm(t *testing.T) {
	api := newFakeAPI()
	api.users[2] = userDict(2)
	m, err := NewMessage(context.Background(), Bind(api), messageDict("m1", 2))
	require.NoError(t, err)

	d, err := wire.AsDict(m)
	require.NoError(t, err)
	assert.NotContains(t, d, "user")
	assert.Equal(t, json.Number("2"), d["user_id"])
	assert.Equal(t, wire.Dict{}, d["placeholder"])
}

func TestDirectWithUserWithoutThread(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	b := Bind(api)
	u := newTestUser(t, b, 2)

	d, err := DirectWithUser(ctx, b, u)
	require.NoError(t, err)
	assert.False(t, d.Exists())
	assert.Equal(t, "user2", d.ThreadTitle)
	assert.Equal(t, "private", d.ThreadType)
	assert.False(t, d.IsGroup)

	msgs, err := d.Messages(ctx, paginate.NoLimit)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = d.SendText(ctx, "hey")
	require.NoError(t, err)
	require.Len(t, api.sent, 1)
	assert.Equal(t, []int64{2}, api.sent[0].Recipients)
	assert.Empty(t, api.sent[0].ThreadID)
	assert.Equal(t, ItemText, api.sent[0].Type)
}

func TestDirectWithUserExistingThread(t *testing.T) {
	api := newFakeAPI()
	api.single["DirectGetByParticipants/[2]"] = wire.Dict{"thread": threadDict("t9", 2)}
	b := Bind(api)

	d, err := DirectWithUser(context.Background(), b, newTestUser(t, b, 2))
	require.NoError(t, err)
	assert.True(t, d.Exists())
	assert.Equal(t, StringID("t9"), d.ThreadID)
}

func TestDirectSendPayloads(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	b := Bind(api)
	d, err := NewDirect(b, threadDict("t1", 2, 3))
	require.NoError(t, err)

	_, err = d.SendLink(ctx, "https://example.com", "")
	require.NoError(t, err)
	_, err = d.SendProfile(ctx, newTestUser(t, b, 7), "look")
	require.NoError(t, err)
	_, err = d.SendHashtag(ctx, "golang", "")
	require.NoError(t, err)
	_, err = d.SendMedia(ctx, newTestFeed(t, b, 100), "post")
	require.NoError(t, err)

	require.Len(t, api.sent, 4)
	link := api.sent[0]
	assert.Equal(t, ItemLink, link.Type)
	assert.Equal(t, "t1", link.ThreadID)
	assert.Equal(t, []int64{2, 3}, link.Recipients)
	assert.Equal(t, "https://example.com", link.Payload["link_text"])
	assert.JSONEq(t, `["https://example.com"]`, link.Payload["link_urls"])

	assert.Equal(t, "7", api.sent[1].Payload["profile_user_id"])
	assert.Equal(t, "golang", api.sent[2].Payload["hashtag"])
	assert.Equal(t, "100", api.sent[3].Payload["media_id"])
	assert.Equal(t, "photo", api.sent[3].Payload["media_type"])
}

func TestUnboundDirect(t *testing.T) {
	var d Direct
	_, err := d.SendText(context.Background(), "x")
	assert.ErrorIs(t, err, ErrClientNotInitialized)

	_, err = Directs(context.Background(), Unbound(), paginate.NoLimit)
	assert.ErrorIs(t, err, ErrClientNotInitialized)
}
