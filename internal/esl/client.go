// Package esl talks to the electronic shelf label endpoint: login, catalog
// batch upload, catalog lookup and tag refresh.
package esl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/telemetry"
)

const (
	loginPath    = "/api/login"
	saveListPath = "/api/goods/saveList"
	getListPath  = "/api/Goods/getList"
	tagPushPath  = "/api/esl/tag/pushList"
	helloPath    = "/api/hello"
)

// DefaultBatchSize is the number of records sent per saveList call
const DefaultBatchSize = 50

// DefaultTokenTTL keeps cached tokens comfortably below the endpoint's
// six-hour validity window.
const DefaultTokenTTL = 5 * time.Hour

// Config holds the remote endpoint settings
type Config struct {
	BaseURL           string
	Username          string
	Password          string
	ShopCode          string
	BatchSize         int
	Timeout           time.Duration
	TokenTTL          time.Duration
	RequestsPerSecond float64
}

// Client is the ESL endpoint client. It caches the auth token and
// re-authenticates transparently when the endpoint rejects it.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a client for the configured endpoint
func NewClient(cfg Config) *Client {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// BatchSize returns the configured saveList batch size
func (c *Client) BatchSize() int {
	return c.cfg.BatchSize
}

// ShopCode returns the configured shop code
func (c *Client) ShopCode() string {
	return c.cfg.ShopCode
}

// Authenticate logs in and caches the returned token. Callers normally do
// not call this directly; every authenticated request obtains a token as
// needed.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.authenticateLocked(ctx)
	return err
}

// authenticateLocked performs the login call. The caller must hold c.mu.
func (c *Client) authenticateLocked(ctx context.Context) (string, error) {
	body := loginRequest{UserName: c.cfg.Username, Password: c.cfg.Password}

	env, status, err := c.post(ctx, loginPath, "", body)
	if err != nil {
		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) {
			return "", &AuthError{Code: remoteErr.Code, Message: remoteErr.Message}
		}
		return "", err
	}
	if env.Code != 0 {
		return "", &AuthError{Code: env.Code, Message: env.Message}
	}

	var token string
	if err := json.Unmarshal(env.Body, &token); err != nil {
		return "", &AuthError{Code: status, Message: "login response carried no token"}
	}
	if token == "" {
		return "", &AuthError{Code: env.Code, Message: "login response carried an empty token"}
	}

	c.token = token
	c.tokenExpiry = time.Now().Add(c.cfg.TokenTTL)
	log.Debug().Time("expires", c.tokenExpiry).Msg("ESL token refreshed")
	return token, nil
}

// ensureToken returns the cached token, logging in when it is absent or
// stale.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}
	return c.authenticateLocked(ctx)
}

// invalidateToken drops the cached token so the next request logs in again
func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

// doAuthed runs an authenticated POST. On a 401 it discards the cached
// token, logs in again and retries the request exactly once.
func (c *Client) doAuthed(ctx context.Context, path string, payload interface{}) (*envelope, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	env, _, err := c.post(ctx, path, token, payload)
	if err == nil {
		return env, nil
	}

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) || remoteErr.Status != http.StatusUnauthorized {
		return nil, err
	}

	// Token expired server-side before our cache did. One fresh login, one
	// retry; a second 401 means credentials are wrong.
	log.Warn().Str("path", path).Msg("ESL token rejected, re-authenticating")
	telemetry.CountReauthentication()
	c.invalidateToken()

	token, err = c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}
	env, _, err = c.post(ctx, path, token, payload)
	if err != nil {
		return nil, err
	}
	return env, nil
}

// post sends one JSON request and decodes the response envelope. A non-2xx
// status or a non-zero envelope code becomes a RemoteError.
func (c *Client) post(ctx context.Context, path, token string, payload interface{}) (*envelope, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.ObserveRemoteRequest(path, 0, time.Since(start))
		return nil, 0, &RemoteError{Message: err.Error()}
	}
	defer resp.Body.Close()
	telemetry.ObserveRemoteRequest(path, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &RemoteError{Status: resp.StatusCode, Message: "failed to read response: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, &RemoteError{Status: resp.StatusCode, Message: trimmedBody(data)}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, resp.StatusCode, &RemoteError{Status: resp.StatusCode, Message: "malformed response: " + trimmedBody(data)}
	}
	return &env, resp.StatusCode, nil
}

// SubmitBatch sends one saveList batch. Every record is validated before
// anything goes over the wire, so a batch is either sent whole or not at
// all.
func (c *Client) SubmitBatch(ctx context.Context, records []GoodsRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	env, err := c.doAuthed(ctx, saveListPath+"?NR=false", records)
	if err != nil {
		telemetry.CountBatch("error")
		return err
	}
	if env.Code != 0 {
		telemetry.CountBatch("rejected")
		return &RemoteError{Code: env.Code, Message: env.Message}
	}

	telemetry.CountBatch("ok")
	log.Debug().Int("records", len(records)).Msg("ESL batch accepted")
	return nil
}

// FindByKey looks one goods code up in the remote catalog. Returns nil when
// the endpoint has no record for it.
func (c *Client) FindByKey(ctx context.Context, goodsCode int64) (*Goods, error) {
	req := getListRequest{
		PageIndex: 1,
		PageSize:  1,
		ShopCode:  c.cfg.ShopCode,
		GoodsCode: strconv.FormatInt(goodsCode, 10),
	}

	env, err := c.doAuthed(ctx, getListPath, req)
	if err != nil {
		return nil, err
	}
	if env.Code != 0 {
		return nil, &RemoteError{Code: env.Code, Message: env.Message}
	}

	var body getListBody
	if err := json.Unmarshal(env.Body, &body); err != nil {
		return nil, &RemoteError{Message: "malformed getList body: " + err.Error()}
	}
	if len(body.ItemList) == 0 {
		return nil, nil
	}
	return &body.ItemList[0], nil
}

// PushTagRefresh asks the endpoint to redraw the tags bound to the given
// goods codes. Refresh is cosmetic, so failures are logged and swallowed;
// the catalog data is already saved either way.
func (c *Client) PushTagRefresh(ctx context.Context, goodsCodes []int64) bool {
	if len(goodsCodes) == 0 {
		return true
	}

	pushes := make([]TagPush, 0, len(goodsCodes))
	for _, code := range goodsCodes {
		pushes = append(pushes, TagPush{
			ShopCode:  c.cfg.ShopCode,
			GoodsCode: strconv.FormatInt(code, 10),
		})
	}

	env, err := c.doAuthed(ctx, tagPushPath, pushes)
	if err != nil {
		log.Warn().Err(err).Int("tags", len(goodsCodes)).Msg("tag refresh push failed")
		return false
	}
	if env.Code != 0 {
		log.Warn().Int("code", env.Code).Str("message", env.Message).Msg("tag refresh push rejected")
		return false
	}
	return true
}

// Hello checks endpoint reachability without authenticating
func (c *Client) Hello(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+helloPath, nil)
	if err != nil {
		return fmt.Errorf("failed to build hello request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.ObserveRemoteRequest(helloPath, 0, time.Since(start))
		return &RemoteError{Message: err.Error()}
	}
	defer resp.Body.Close()
	telemetry.ObserveRemoteRequest(helloPath, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return &RemoteError{Status: resp.StatusCode, Message: "failed to read response: " + err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return &RemoteError{Status: resp.StatusCode, Message: trimmedBody(data)}
	}
	if got := string(bytes.TrimSpace(data)); got != "OK" {
		return &RemoteError{Status: resp.StatusCode, Message: fmt.Sprintf("unexpected hello reply %q", got)}
	}
	return nil
}

// trimmedBody keeps error messages short when the endpoint replies with an
// HTML error page.
func trimmedBody(data []byte) string {
	s := string(bytes.TrimSpace(data))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
