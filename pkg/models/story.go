package models

import (
	"context"
	"encoding/json"

	"instapi/pkg/wire"
)

// Story is a story item with the users mentioned in it.
type Story struct {
	Media
	Mentions []User `json:"-"`
}

// StorySchema declares the wire keys of a story. Mentions arrive as
// reel_mentions, a list of {"user": {...}} objects.
var StorySchema = MediaSchema.Extend("Story", wire.Optional("reel_mentions"))

// NewStory decodes a story payload.
func NewStory(b Binding, data wire.Dict) (Story, error) {
	s, err := wire.Create[Story](data, StorySchema)
	if err != nil {
		return Story{}, err
	}
	s.attach(b)

	mentions := wire.Items(data, "reel_mentions")
	s.Mentions = make([]User, 0, len(mentions))
	for _, m := range mentions {
		u, err := userFrom(b, m, "user")
		if err != nil {
			return Story{}, err
		}
		s.Mentions = append(s.Mentions, u)
	}
	return s, nil
}

func storyDecoder(b Binding) func(wire.Dict) (Story, error) {
	return func(d wire.Dict) (Story, error) { return NewStory(b, d) }
}

type reelMention struct {
	User User `json:"user"`
}

// MarshalJSON restores the reel_mentions wire layout.
func (s Story) MarshalJSON() ([]byte, error) {
	mentions := make([]reelMention, len(s.Mentions))
	for i, u := range s.Mentions {
		mentions[i] = reelMention{User: u}
	}
	return json.Marshal(struct {
		PK           PK            `json:"pk"`
		ReelMentions []reelMention `json:"reel_mentions"`
	}{s.PK, mentions})
}

// Equal reports whether both stories share a primary key.
func (s Story) Equal(other Story) bool {
	return s.PK == other.PK
}

// Gallery exposes the photo or video of the story.
func (s Story) Gallery() Gallery {
	return Gallery{media: s.Media}
}

// MarkSeen tells the remote that the story was viewed.
func (s Story) MarkSeen(ctx context.Context) error {
	info, err := s.Info(ctx)
	if err != nil {
		return err
	}
	api, err := s.b.API()
	if err != nil {
		return err
	}
	_, err = api.MediaSeen(ctx, []wire.Dict{info})
	return err
}
