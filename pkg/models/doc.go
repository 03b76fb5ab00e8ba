// Package models is the entity graph of the remote service: users, posts,
// comments, stories, direct threads and the photo and video resources
// attached to posts and stories.
//
// Entities are immutable values decoded through package wire. Each carries a
// Binding, the capability used to reach the remote client. Entities built
// from an unbound Binding fail every remote operation with
// ErrClientNotInitialized.
//
// Every listing comes in two forms. The Iter variant returns a lazy
// iter.Seq2 that fetches pages only as the consumer pulls; the bulk variant
// collects the same sequence with a paginate.Limit:
//
//	b := models.Bind(client)
//	u, err := models.UserFromUsername(ctx, b, "someone")
//	if err != nil {
//		return err
//	}
//	for f, err := range u.IterFeeds(ctx) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(f.PK, f.LikeCount)
//	}
//
//	first10, err := u.Followers(ctx, paginate.Max(10))
package models
