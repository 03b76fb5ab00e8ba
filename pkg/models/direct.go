package models

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"instapi/pkg/paginate"
	"instapi/pkg/wire"
)

// Message is one item of a direct thread.
type Message struct {
	ItemID      StringID  `json:"item_id"`
	Timestamp   Timestamp `json:"timestamp"`
	ItemType    string    `json:"item_type"`
	User        User      `json:"-"`
	Placeholder wire.Dict `json:"placeholder"`
	StoryShare  wire.Dict `json:"story_share"`
}

// MessageSchema declares the wire keys of a message. The sender arrives as
// user_id and is resolved to a full User on decode.
var MessageSchema = wire.NewSchema("Message",
	wire.Required("item_id"),
	wire.Required("timestamp"),
	wire.Required("item_type"),
	wire.Required("user_id"),
	wire.Optional("placeholder"),
	wire.Optional("story_share"),
)

// NewMessage decodes a message payload, fetching the sender.
func NewMessage(ctx context.Context, b Binding, data wire.Dict) (Message, error) {
	m, err := wire.Create[Message](data, MessageSchema)
	if err != nil {
		return Message{}, err
	}
	senderPK, err := decodeValue[PK](data["user_id"])
	if err != nil {
		return Message{}, fmt.Errorf("message sender: %w", err)
	}
	if m.User, err = GetUser(ctx, b, int64(senderPK)); err != nil {
		return Message{}, err
	}
	if m.Placeholder == nil {
		m.Placeholder = wire.Dict{}
	}
	if m.StoryShare == nil {
		m.StoryShare = wire.Dict{}
	}
	return m, nil
}

// MarshalJSON flattens the sender back to user_id.
func (m Message) MarshalJSON() ([]byte, error) {
	placeholder, storyShare := m.Placeholder, m.StoryShare
	if placeholder == nil {
		placeholder = wire.Dict{}
	}
	if storyShare == nil {
		storyShare = wire.Dict{}
	}
	return json.Marshal(struct {
		ItemID      StringID  `json:"item_id"`
		Timestamp   Timestamp `json:"timestamp"`
		ItemType    string    `json:"item_type"`
		UserID      PK        `json:"user_id"`
		Placeholder wire.Dict `json:"placeholder"`
		StoryShare  wire.Dict `json:"story_share"`
	}{m.ItemID, m.Timestamp, m.ItemType, m.User.PK, placeholder, storyShare})
}

// Direct is a message thread. ThreadID is empty for a thread that has not
// been created on the remote yet.
type Direct struct {
	ThreadTitle string   `json:"thread_title"`
	ThreadType  string   `json:"thread_type"`
	IsGroup     bool     `json:"is_group"`
	Users       []User   `json:"users"`
	ThreadID    StringID `json:"thread_id,omitempty"`

	b Binding
}

// DirectSchema declares the wire keys of a thread.
var DirectSchema = wire.NewSchema("Direct",
	wire.Required("thread_title"),
	wire.Required("thread_type"),
	wire.Required("is_group"),
	wire.NestedList("users", UserSchema),
	wire.Optional("thread_id"),
)

// NewDirect decodes a thread payload.
func NewDirect(b Binding, data wire.Dict) (Direct, error) {
	d, err := wire.Create[Direct](data, DirectSchema)
	if err != nil {
		return Direct{}, err
	}
	d.b = b
	for i := range d.Users {
		d.Users[i].b = b
	}
	return d, nil
}

func directDecoder(b Binding) func(wire.Dict) (Direct, error) {
	return func(d wire.Dict) (Direct, error) { return NewDirect(b, d) }
}

// IterDirects lazily lists the inbox threads, newest activity first.
func IterDirects(ctx context.Context, b Binding) iter.Seq2[Direct, error] {
	return listing(ctx, b,
		func(api API) paginate.Fetcher { return paginate.Plain(api.DirectInbox) },
		"inbox.threads", directDecoder(b),
		paginate.WithCursor("cursor", "inbox.oldest_cursor"),
	)
}

// Directs collects IterDirects up to limit.
func Directs(ctx context.Context, b Binding, limit paginate.Limit) ([]Direct, error) {
	return paginate.Collect(IterDirects(ctx, b), limit)
}

// DirectWithUser returns the private thread with u. When none exists yet a
// local thread without an id is returned; sending to it creates it.
func DirectWithUser(ctx context.Context, b Binding, u User) (Direct, error) {
	api, err := b.API()
	if err != nil {
		return Direct{}, err
	}
	resp, err := api.DirectGetByParticipants(ctx, []int64{u.ID()})
	if err != nil {
		return Direct{}, err
	}
	if thread, ok := wire.LookupDict(resp, "thread"); ok {
		return NewDirect(b, thread)
	}
	return Direct{
		ThreadTitle: u.Username,
		ThreadType:  "private",
		IsGroup:     false,
		Users:       []User{u},
		b:           b,
	}, nil
}

// Exists reports whether the thread has been created on the remote.
func (d Direct) Exists() bool {
	return d.ThreadID != ""
}

// IterMessages lazily lists the thread's messages, newest first. A thread
// that does not exist yet has none.
func (d Direct) IterMessages(ctx context.Context) iter.Seq2[Message, error] {
	api, err := d.b.API()
	if err != nil {
		return paginate.Fail[Message](err)
	}
	if !d.Exists() {
		return paginate.Slice[Message](nil)
	}
	pages := paginate.Pages(ctx,
		func(ctx context.Context, call paginate.Call) (wire.Dict, error) {
			return api.DirectThread(ctx, string(d.ThreadID), call.Params)
		},
		paginate.WithCursor("cursor", "thread.oldest_cursor"),
	)
	items := paginate.FlatMap(pages, func(page wire.Dict) ([]wire.Dict, error) {
		return pageItems(page, "thread.items")
	})
	return paginate.Map(items, func(item wire.Dict) (Message, error) {
		return NewMessage(ctx, d.b, item)
	})
}

// Messages collects IterMessages up to limit.
func (d Direct) Messages(ctx context.Context, limit paginate.Limit) ([]Message, error) {
	return paginate.Collect(d.IterMessages(ctx), limit)
}

func (d Direct) send(ctx context.Context, t ItemType, payload map[string]string) (wire.Dict, error) {
	api, err := d.b.API()
	if err != nil {
		return nil, err
	}
	recipients := make([]int64, len(d.Users))
	for i, u := range d.Users {
		recipients[i] = u.ID()
	}
	return api.DirectSendItem(ctx, SendItem{
		Type:       t,
		Recipients: recipients,
		ThreadID:   string(d.ThreadID),
		Payload:    payload,
	})
}

// SendText sends a plain text message.
func (d Direct) SendText(ctx context.Context, text string) (wire.Dict, error) {
	return d.send(ctx, ItemText, map[string]string{"text": text})
}

// SendLink sends a link. The link itself is used as text when text is empty.
func (d Direct) SendLink(ctx context.Context, link, text string) (wire.Dict, error) {
	if text == "" {
		text = link
	}
	urls, err := json.Marshal([]string{link})
	if err != nil {
		return nil, err
	}
	return d.send(ctx, ItemLink, map[string]string{
		"link_text": text,
		"link_urls": string(urls),
	})
}

// SendProfile shares the profile of u.
func (d Direct) SendProfile(ctx context.Context, u User, text string) (wire.Dict, error) {
	return d.send(ctx, ItemProfile, map[string]string{
		"text":            text,
		"profile_user_id": fmt.Sprint(u.ID()),
	})
}

// SendHashtag shares a hashtag.
func (d Direct) SendHashtag(ctx context.Context, hashtag, text string) (wire.Dict, error) {
	return d.send(ctx, ItemHashtag, map[string]string{
		"text":    text,
		"hashtag": hashtag,
	})
}

// SendMedia shares a post.
func (d Direct) SendMedia(ctx context.Context, media Identified, text string) (wire.Dict, error) {
	return d.send(ctx, ItemMediaShare, map[string]string{
		"text":       text,
		"media_type": "photo",
		"media_id":   fmt.Sprint(media.ID()),
	})
}
