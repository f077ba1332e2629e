package verification

import (
	"net/http"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
)

// Doer is the part of an HTTP client the strategies use. *httpclient.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns a heimdall client that retries transport errors and 5xx answers
// with a constant backoff. timeout bounds every single attempt.
func NewHTTPClient(timeout time.Duration, retries int) *httpclient.Client {
	backoff := heimdall.NewConstantBackoff(200*time.Millisecond, 100*time.Millisecond)
	return httpclient.NewClient(
		httpclient.WithHTTPTimeout(timeout),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		httpclient.WithRetryCount(retries),
	)
}
