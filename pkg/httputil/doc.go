// Package httputil provides the HTTP plumbing used to fetch diagram
// documents.
//
// # Overview
//
//   - [Client]: GET with status classification, retry and observability
//     hooks
//   - [Retry]: automatic retry with exponential backoff
//
// # Retry
//
// [Retry] re-runs an operation only when it fails with a [RetryableError].
// [Client] marks these failures retryable:
//
//   - Network errors and timeouts
//   - 5xx server errors
//   - 429 rate limit responses
//
// Any other status (404, 403, ...) fails immediately.
//
//	c := httputil.NewClient(nil, 3, time.Second)
//	body, err := c.Get(ctx, "http://localhost:8080/data/nodes.yaml")
//
// # Observability
//
// Every request and response is reported to observability.HTTP(), so a
// verbose CLI run logs each fetch with its status and duration.
package httputil
