// Package instagram is an HTTP client for the private mobile API.
//
// Client implements models.API: every method issues one request and returns
// the decoded JSON body with numbers kept as json.Number. Reads are paced by
// a token bucket and retried on network failures, rate limiting and server
// errors; mutations are sent once. Failures are *errors.Error values
// carrying the HTTP status and the raw response body.
//
// Example usage:
//
//	client, err := instagram.NewClient(cfg, log)
//	if err != nil {
//		return err
//	}
//	if err := client.Login(ctx, username, password); err != nil {
//		var apiErr *errors.Error
//		if stderrors.As(err, &apiErr) && apiErr.Type == errors.ErrorTypeAuth {
//			// bad credentials or checkpoint
//		}
//		return err
//	}
//	blob, _ := client.ExportSession()
//
// A session exported after login can later be restored with ImportSession
// and checked with Verify, avoiding a new login.
package instagram
