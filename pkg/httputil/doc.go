// Package httputil holds the HTTP plumbing shared by the remote asset
// fetcher and the template catalog client.
//
// [Get] issues a GET request, reports it through the observability HTTP
// hooks and classifies the outcome: transport failures, 429 and 5xx
// responses are wrapped in [RetryableError] so that [Retry] attempts them
// again, every other non-200 status is returned at once.
//
//	var body []byte
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    var err error
//	    body, err = httputil.Get(ctx, client, url, httputil.MaxBody)
//	    return err
//	})
//
// Errors carry codes from pkg/errors: NETWORK_ERROR for transport failures
// and retryable statuses, NOT_FOUND for 404 and ASSET_UNAVAILABLE for the
// remaining statuses.
package httputil
