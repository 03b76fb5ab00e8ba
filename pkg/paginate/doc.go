// Package paginate turns cursor-driven remote listings into lazy sequences.
//
// Pages issues the first request without a cursor, yields each page as soon
// as it arrives and only requests the next page once the consumer asks for
// more. The next cursor is read from a dotted path inside the page; a missing
// or falsy value ends the sequence. Errors from the fetcher end the sequence
// and are handed to the consumer unchanged.
//
//	pages := paginate.Pages(ctx, fetch,
//		paginate.WithSubject(userPK),
//		paginate.WithRankToken(),
//	)
//	users := paginate.FlatMap(pages, decodeUsers)
//	first10, err := paginate.Collect(users, paginate.Max(10))
//
// Take and Collect never pull more than the requested number of elements, so
// a limit that is reached inside the first page prevents the second request.
package paginate
