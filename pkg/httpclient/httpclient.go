package httpclient

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// NewRestyHTTPClient returns a resty client with the given timeout applied.
// Callers share one construction point so transport defaults stay uniform.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}
