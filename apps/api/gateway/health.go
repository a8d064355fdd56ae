package gatewayapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"github.com/YounesFetouaki/edu-path/core/gateway"
)

const (
	statusUp   = "up"
	statusDown = "down"

	maxCheckTimeout = 3 * time.Second
)

type healthChecker struct {
	client  *resty.Client
	timeout time.Duration
}

func newHealthChecker(proxyTimeout time.Duration) *healthChecker {
	timeout := maxCheckTimeout
	if proxyTimeout > 0 && proxyTimeout < timeout {
		timeout = proxyTimeout
	}
	return &healthChecker{
		client:  resty.New().SetTimeout(timeout),
		timeout: timeout,
	}
}

// check requests the root of every upstream concurrently. An upstream is up when it answers below 500.
func (hc *healthChecker) check(ctx context.Context, routes []gateway.Route) map[string]string {
	var (
		mu     sync.Mutex
		status = make(map[string]string, len(routes))
		g      errgroup.Group
	)
	for _, r := range routes {
		r := r
		g.Go(func() error {
			st := statusDown
			cctx, cancel := context.WithTimeout(ctx, hc.timeout)
			defer cancel()
			resp, err := hc.client.R().SetContext(cctx).Get(r.Target)
			if err == nil && resp.StatusCode() < http.StatusInternalServerError {
				st = statusUp
			}
			mu.Lock()
			status[r.Name] = st
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // checks never fail, they report down
	return status
}
