// Package sources implements the shipment and tracking source ports as
// HTTP JSON clients over their respective management systems. Both
// backends serve bounded, static datasets per analysis run, so each
// client lazily loads and caches the entire dataset on first access.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// memoizedDataset loads a keyed dataset once and serves every later
// lookup from memory. Concurrent first accesses collapse into a single
// fetch; only a successful load is memoized, so a failed first fetch
// does not poison later attempts.
type memoizedDataset[T any] struct {
	fetch func(ctx context.Context) (map[string]T, error)

	mu    sync.RWMutex
	data  map[string]T
	group singleflight.Group
}

func (d *memoizedDataset[T]) get(ctx context.Context) (map[string]T, error) {
	d.mu.RLock()
	data := d.data
	d.mu.RUnlock()
	if data != nil {
		return data, nil
	}

	v, err, _ := d.group.Do("dataset", func() (any, error) {
		// A concurrent loader may have won the race before this flight
		// started; re-check under the lock.
		d.mu.RLock()
		cached := d.data
		d.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		loaded, err := d.fetch(ctx)
		if err != nil {
			return nil, err
		}

		d.mu.Lock()
		d.data = loaded
		d.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(map[string]T), nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// do executes one request and converts non-2xx responses into typed
// status errors for the retry predicate.
func do(session *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

// transient reports whether an error is worth another attempt:
// network-class failures and 429/5xx responses are, 4xx are not.
func transient(err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
