package utils

import (
	"github.com/go-resty/resty/v2"
)

// HTTPClient wraps resty.Client for outbound calls. Its one consumer today
// is the HTTP processor sink, which streams recovered plaintext to a
// downstream transcription endpoint.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient returns an independent client with its own connection pool.
// Each consumer worker gets its own instance, so sink retries and timeouts
// never interfere across workers.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{Client: resty.New()}
}
