package models

import (
	"context"

	"instapi/pkg/wire"
)

// Comment is a comment left on a post.
type Comment struct {
	Media
	Text string `json:"text"`
	User User   `json:"user"`
}

// CommentSchema declares the wire keys of a comment.
var CommentSchema = MediaSchema.Extend("Comment",
	wire.Required("text"),
	wire.Nested("user", UserSchema),
)

// NewComment decodes a comment payload.
func NewComment(b Binding, data wire.Dict) (Comment, error) {
	c, err := wire.Create[Comment](data, CommentSchema)
	if err != nil {
		return Comment{}, err
	}
	c.attach(b)
	c.User.b = b
	return c, nil
}

func commentDecoder(b Binding) func(wire.Dict) (Comment, error) {
	return func(d wire.Dict) (Comment, error) { return NewComment(b, d) }
}

// Equal reports whether both comments share a primary key.
func (c Comment) Equal(other Comment) bool {
	return c.PK == other.PK
}

// Like likes the comment.
func (c Comment) Like(ctx context.Context) error {
	api, err := c.b.API()
	if err != nil {
		return err
	}
	_, err = api.CommentLike(ctx, c.ID())
	return err
}

// Unlike removes the like from the comment.
func (c Comment) Unlike(ctx context.Context) error {
	api, err := c.b.API()
	if err != nil {
		return err
	}
	_, err = api.CommentUnlike(ctx, c.ID())
	return err
}
