package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/talkscout/internal/config"
	"github.com/IshaanNene/talkscout/internal/types"
)

// HTTPLoader implements Loader with plain HTTP requests. It returns the
// server-rendered HTML, which already carries the JSON-LD blocks and the
// play counter on the detail pages.
type HTTPLoader struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	logger      *slog.Logger
}

// NewHTTPLoader creates a new HTTP loader.
func NewHTTPLoader(cfg config.DetailConfig, logger *slog.Logger) (*HTTPLoader, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // We handle decompression ourselves (including brotli)
	}

	client := &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   cfg.RequestTimeout,
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = "talkscout/" + config.Version
	}

	return &HTTPLoader{
		client:      client,
		userAgent:   ua,
		maxBodySize: cfg.MaxBodySize,
		logger:      logger.With("component", "http_loader"),
	}, nil
}

// Load implements Loader.
func (l *HTTPLoader) Load(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &types.FetchError{URL: url, Err: err}
	}

	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		return "", &types.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	// 429 Too Many Requests: surface the Retry-After hint to the caller.
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", &types.FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("rate limited (retry after %s)", retryAfter),
		}
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &types.FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	// Read body with size limit
	var reader io.Reader = resp.Body
	if l.maxBodySize > 0 {
		reader = io.LimitReader(reader, l.maxBodySize)
	}

	reader, err = decompressReader(resp, reader)
	if err != nil {
		return "", &types.FetchError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", &types.FetchError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	if len(body) == 0 {
		return "", &types.FetchError{URL: url, StatusCode: resp.StatusCode, Err: types.ErrEmptyResponse}
	}

	l.logger.Debug("fetch complete",
		"url", url,
		"status", resp.StatusCode,
		"size", len(body),
		"duration", time.Since(start),
	)
	return string(body), nil
}

// Close releases idle connections.
func (l *HTTPLoader) Close() error {
	l.client.CloseIdleConnections()
	return nil
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// parseRetryAfter parses the Retry-After header value.
// Supports both integer seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		if secs > 120 {
			secs = 120 // cap at 2 minutes
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return time.Second
		}
		if d > 2*time.Minute {
			return 2 * time.Minute
		}
		return d
	}
	return 5 * time.Second
}
