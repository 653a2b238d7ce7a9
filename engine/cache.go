package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/allegro/bigcache/v3"
	jsoniter "github.com/json-iterator/go"

	"github.com/jmcardon/http4s/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const cacheEntrySizeHint = 4 * 1024

// cachedResponse is the stored form of a response.
type cachedResponse struct {
	StatusCode int         `json:"status"`
	Protocol   Protocol    `json:"protocol"`
	Headers    [][2]string `json:"headers"`
	Body       []byte      `json:"body"`
	// ExpiresAt is a unix-nano deadline; zero means the cache life window.
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

// ResponseCache keeps complete GET 200 responses in memory. Requests with
// credentials and responses that vary, must be revalidated or are already
// stale are never stored.
type ResponseCache struct {
	cache        *bigcache.BigCache
	maxEntrySize int
	log          *logger.Logger

	closed   atomic.Bool
	closeErr error
	once     sync.Once
}

var _ Cache = (*ResponseCache)(nil)

// NewResponseCache creates a cache from cfg.
func NewResponseCache(cfg CacheConfig, log *logger.Logger) (*ResponseCache, error) {
	bc := bigcache.DefaultConfig(cfg.LifeWindow)
	bc.Shards = cfg.Shards
	bc.MaxEntriesInWindow = cfg.MaxEntries
	// bigcache only uses MaxEntrySize to size shards up front.
	bc.MaxEntrySize = min(cfg.MaxEntrySize, cacheEntrySizeHint)
	bc.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	bc.Verbose = false

	cache, err := bigcache.New(context.Background(), bc)
	if err != nil {
		return nil, err
	}
	return &ResponseCache{cache: cache, maxEntrySize: cfg.MaxEntrySize, log: log}, nil
}

// Close releases the cache. Only the first call closes it.
func (c *ResponseCache) Close() error {
	c.once.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.cache.Close()
	})
	return c.closeErr
}

// Len returns the number of stored entries.
func (c *ResponseCache) Len() int {
	if c.closed.Load() {
		return 0
	}
	return c.cache.Len()
}

func cacheKey(req *Request) string {
	return req.Method + " " + req.URL.String()
}

// lookup returns a stored response for req, if any.
func (c *ResponseCache) lookup(req *Request) (*Response, bool) {
	if c.closed.Load() || req.Method != http.MethodGet || req.Headers.Get("Authorization") != "" ||
		hasDirective(req.Headers.Values("Cache-Control"), "no-cache", "no-store") {
		return nil, false
	}
	key := cacheKey(req)
	raw, err := c.cache.Get(key)
	if err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			c.log.Warn("cache read failed", logger.Fields(logger.FieldError, err.Error()))
		}
		return nil, false
	}

	var entry cachedResponse
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.log.Warn("cache entry corrupt", logger.Fields(logger.FieldURL, req.URL.String(), logger.FieldError, err.Error()))
		return nil, false
	}
	if entry.ExpiresAt != 0 && time.Now().UnixNano() >= entry.ExpiresAt {
		_ = c.cache.Delete(key)
		return nil, false
	}

	headers := NewHeaders()
	for _, kv := range entry.Headers {
		headers.Add(kv[0], kv[1])
	}
	return &Response{
		StatusCode: entry.StatusCode,
		Protocol:   entry.Protocol,
		Headers:    headers,
		Body:       io.NopCloser(bytes.NewReader(entry.Body)),
	}, true
}

// cacheable reports whether resp to req may be stored.
func (c *ResponseCache) cacheable(req *Request, resp *Response, contentLength int64) bool {
	if c.closed.Load() || req.Method != http.MethodGet || resp.StatusCode != http.StatusOK {
		return false
	}
	if req.Headers.Get("Authorization") != "" || resp.Headers.Get("Vary") != "" {
		return false
	}
	if hasDirective(req.Headers.Values("Cache-Control"), "no-store") ||
		hasDirective(resp.Headers.Values("Cache-Control"), "no-store", "no-cache", "private") {
		return false
	}
	if _, ok := freshness(resp.Headers, time.Now()); !ok {
		return false
	}
	return contentLength <= int64(c.maxEntrySize)
}

// freshness returns the lifetime resp declares through max-age or Expires.
// ok is false when resp is already stale; a zero ttl means none was declared.
func freshness(h *Headers, now time.Time) (ttl time.Duration, ok bool) {
	for _, v := range h.Values("Cache-Control") {
		for _, part := range strings.Split(v, ",") {
			name, val, _ := strings.Cut(strings.TrimSpace(part), "=")
			if !strings.EqualFold(name, "max-age") {
				continue
			}
			secs, err := strconv.Atoi(strings.Trim(val, `"`))
			if err != nil || secs <= 0 {
				return 0, false
			}
			return time.Duration(secs) * time.Second, true
		}
	}
	if raw := h.Get("Expires"); raw != "" {
		exp, err := http.ParseTime(raw)
		if err != nil || !exp.After(now) {
			return 0, false
		}
		return exp.Sub(now), true
	}
	return 0, true
}

// wrap returns resp with a body that stores itself once read to the end.
func (c *ResponseCache) wrap(req *Request, resp *Response) *Response {
	key := cacheKey(req)
	var expiresAt int64
	if ttl, _ := freshness(resp.Headers, time.Now()); ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}
	stored := *resp
	stored.Body = &teeBody{
		ReadCloser: resp.Body,
		limit:      c.maxEntrySize,
		onComplete: func(body []byte) { c.store(key, resp, body, expiresAt) },
	}
	return &stored
}

func (c *ResponseCache) store(key string, resp *Response, body []byte, expiresAt int64) {
	if c.closed.Load() {
		return
	}
	entry := cachedResponse{StatusCode: resp.StatusCode, Protocol: resp.Protocol, Body: body, ExpiresAt: expiresAt}
	for _, name := range resp.Headers.Names() {
		for _, v := range resp.Headers.Values(name) {
			entry.Headers = append(entry.Headers, [2]string{name, v})
		}
	}

	raw, err := json.Marshal(&entry)
	if err != nil {
		c.log.Warn("cache encode failed", logger.Fields(logger.FieldError, err.Error()))
		return
	}
	if err := c.cache.Set(key, raw); err != nil {
		c.log.Warn("cache write failed", logger.Fields(logger.FieldError, err.Error()))
	}
}

func hasDirective(values []string, directives ...string) bool {
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			for _, d := range directives {
				if part == d {
					return true
				}
			}
		}
	}
	return false
}

// teeBody copies what is read into memory and hands it to onComplete at EOF.
// Bodies larger than limit are passed through without being kept.
type teeBody struct {
	io.ReadCloser
	buf        bytes.Buffer
	limit      int
	overflow   bool
	done       bool
	onComplete func([]byte)
}

func (t *teeBody) Read(p []byte) (int, error) {
	n, err := t.ReadCloser.Read(p)
	if n > 0 && !t.overflow {
		if t.buf.Len()+n > t.limit {
			t.overflow = true
			t.buf = bytes.Buffer{}
		} else {
			t.buf.Write(p[:n])
		}
	}
	if errors.Is(err, io.EOF) && !t.overflow && !t.done {
		t.done = true
		t.onComplete(t.buf.Bytes())
	}
	return n, err
}
