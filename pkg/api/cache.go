package api

import (
	"context"
	"errors"
	"time"
)

var errCacheStopped = errors.New("render cache stopped")

type renderRequest struct {
	ctx    context.Context
	key    string
	render func(context.Context) ([]byte, error)
	reply  chan renderResponse
}

type renderResponse struct {
	data []byte
	err  error
}

type renderEntry struct {
	data    []byte
	expires time.Time
}

// RenderCache keeps rendered workbooks and QR images for a short time, keyed
// by the inputs they were rendered from. One goroutine owns the map.
type RenderCache struct {
	ttl        time.Duration
	maxEntries int
	requests   chan renderRequest
	quit       chan struct{}
	now        func() time.Time
}

// NewRenderCache starts the owning goroutine. A ttl <= 0 returns nil, which
// renders on every call.
func NewRenderCache(ttl time.Duration, maxEntries int) *RenderCache {
	if ttl <= 0 {
		return nil
	}
	if maxEntries <= 0 {
		maxEntries = 512
	}
	c := &RenderCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		requests:   make(chan renderRequest),
		quit:       make(chan struct{}),
		now:        time.Now,
	}
	go c.loop()
	return c
}

// Close stops the goroutine. Safe to call more than once.
func (c *RenderCache) Close() {
	if c == nil {
		return
	}
	select {
	case <-c.quit:
	default:
		close(c.quit)
	}
}

// Get returns the bytes for key, rendering them on a miss. Failed renders are
// not stored.
func (c *RenderCache) Get(ctx context.Context, key string, render func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil {
		return render(ctx)
	}
	req := renderRequest{ctx: ctx, key: key, render: render, reply: make(chan renderResponse, 1)}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.quit:
		return nil, errCacheStopped
	case c.requests <- req:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.quit:
		return nil, errCacheStopped
	case resp := <-req.reply:
		if resp.err != nil {
			return nil, resp.err
		}
		out := make([]byte, len(resp.data))
		copy(out, resp.data)
		return out, nil
	}
}

func (c *RenderCache) loop() {
	store := make(map[string]renderEntry)
	for {
		select {
		case <-c.quit:
			return
		case req := <-c.requests:
			now := c.now()
			if e, ok := store[req.key]; ok && now.Before(e.expires) {
				req.reply <- renderResponse{data: e.data}
				continue
			}
			data, err := req.render(req.ctx)
			if err != nil {
				delete(store, req.key)
				req.reply <- renderResponse{err: err}
				continue
			}
			if len(store) >= c.maxEntries {
				for k, e := range store {
					if !now.Before(e.expires) {
						delete(store, k)
					}
				}
			}
			if len(store) < c.maxEntries {
				buf := make([]byte, len(data))
				copy(buf, data)
				store[req.key] = renderEntry{data: buf, expires: now.Add(c.ttl)}
			}
			req.reply <- renderResponse{data: data}
		}
	}
}
