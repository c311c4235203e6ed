package stealth

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// StealthTransport is an http.RoundTripper that applies the full stealth pipeline:
// Fingerprint → RobotsCheck → RateLimiter → HumanDelay → Proxy → Send
//
// Strategies own their identity when they need one: the mobile-gateway
// strategy sends an Android app header set that must reach the wire
// untouched. The fingerprint pool therefore only fills in what the
// request does not already carry.
type StealthTransport struct {
	Base        http.RoundTripper
	Robots      *RobotsChecker
	Fingerprint *FingerprintPool
	Proxy       *ProxyRotator
	Delay       *HumanDelay
	RateLimiter *rate.Limiter
}

func (t *StealthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// 1. Fill in fingerprint (UA + headers) where the request has none
	userAgent := req.Header.Get("User-Agent")
	if t.Fingerprint != nil {
		fp := t.Fingerprint.Next()
		if userAgent == "" {
			userAgent = fp.UserAgent
			req.Header.Set("User-Agent", userAgent)
		}
		for key, vals := range fp.Headers {
			if req.Header.Get(key) == "" {
				for _, v := range vals {
					req.Header.Add(key, v)
				}
			}
		}
	}

	// 2. Check robots.txt
	if t.Robots != nil {
		allowed, err := t.Robots.IsAllowed(userAgent, req.URL.String())
		if err == nil && !allowed {
			return nil, fmt.Errorf("blocked by robots.txt: %s", req.URL.Path)
		}
	}

	// 3. Wait for rate limiter token
	if t.RateLimiter != nil {
		if err := t.RateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	// 4. Apply human-like delay
	if t.Delay != nil {
		if err := t.Delay.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("delay: %w", err)
		}
	}

	// 5. Route through proxy if configured
	transport := t.Base
	if t.Proxy != nil {
		transport = t.Proxy.Next().Transport()
	}
	if transport == nil {
		transport = http.DefaultTransport
	}

	return transport.RoundTrip(req)
}
