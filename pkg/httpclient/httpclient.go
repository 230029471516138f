package httpclient

import (
	"net"
	"net/http"
	"time"
)

// Probe traffic touches many distinct hosts a handful of times each, so
// the pool is wide but shallow.
const (
	dialTimeout     = 5 * time.Second
	tlsTimeout      = 5 * time.Second
	headerTimeout   = 10 * time.Second
	keepAlivePeriod = 30 * time.Second
	idleConnTimeout = 90 * time.Second
	maxIdleConns    = 1000
	maxIdlePerHost  = 2
	continueTimeout = 1 * time.Second
)

// NewHttpClient returns the shared client used for health checks.
// Redirects are not followed: a 3xx answer is a valid probe result on
// its own, the classifier decides what it means.
func NewHttpClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: keepAlivePeriod,
	}

	return &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   tlsTimeout,
			ResponseHeaderTimeout: headerTimeout,
			ExpectContinueTimeout: continueTimeout,
			MaxIdleConns:          maxIdleConns,
			MaxIdleConnsPerHost:   maxIdlePerHost,
			IdleConnTimeout:       idleConnTimeout,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
