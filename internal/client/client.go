package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unifiedpro/internal/domain/auth"
	"unifiedpro/internal/domain/catalog"
	"unifiedpro/internal/domain/profile"
	"unifiedpro/internal/domain/salary"
	"unifiedpro/internal/domain/slip"
)

const (
	DefaultTimeout = 10 * time.Second
	apiPrefix      = "/api/v1"
)

var ErrNoCredentials = errors.New("no token and no credentials configured")

// APIError is a non-success envelope returned by the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Config struct {
	BaseURL  string
	Email    string
	Password string
	Token    string
	Timeout  time.Duration
}

// Client talks to the salary API with a bearer token. A 401 triggers one
// fresh login and one retry when credentials are configured.
type Client struct {
	baseURL  string
	email    string
	password string
	http     *http.Client
	log      *zap.Logger

	mu    sync.Mutex
	token string
}

func New(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		email:    cfg.Email,
		password: cfg.Password,
		token:    cfg.Token,
		http:     &http.Client{Timeout: timeout},
		log:      logger,
	}
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Login exchanges the configured credentials for a token.
func (c *Client) Login(ctx context.Context) (auth.LoginResult, error) {
	if c.email == "" || c.password == "" {
		return auth.LoginResult{}, ErrNoCredentials
	}
	var res auth.LoginResult
	body := map[string]string{"email": c.email, "password": c.password}
	if err := c.send(ctx, http.MethodPost, "/auth/login", body, "", "", &res); err != nil {
		return auth.LoginResult{}, err
	}
	c.mu.Lock()
	c.token = res.Token
	c.mu.Unlock()
	return res, nil
}

// Catalog fetches the snapshot. A non-empty profileID fills in the current
// amounts of that profile's saved structure.
func (c *Client) Catalog(ctx context.Context, profileID string) (catalog.Catalog, error) {
	path := "/salary/catalog"
	if profileID != "" {
		path += "?profileId=" + url.QueryEscape(profileID)
	}
	var out catalog.Catalog
	err := c.do(ctx, http.MethodGet, path, nil, "", &out)
	return out, err
}

func (c *Client) DetailedProfile(ctx context.Context, profileID string) (profile.DetailedProfile, error) {
	var out profile.DetailedProfile
	err := c.do(ctx, http.MethodGet, "/profiles/basic/"+url.PathEscape(profileID)+"/detailed", nil, "", &out)
	return out, err
}

// CreateStructure and UpdateStructure send one idempotency key per call, so
// a retry after a lost response cannot save twice.
func (c *Client) CreateStructure(ctx context.Context, req salary.SubmitRequest) (salary.SubmitResult, error) {
	var out salary.SubmitResult
	err := c.do(ctx, http.MethodPost, "/salary/structures", req, uuid.NewString(), &out)
	return out, err
}

func (c *Client) UpdateStructure(ctx context.Context, req salary.SubmitRequest) (salary.SubmitResult, error) {
	var out salary.SubmitResult
	err := c.do(ctx, http.MethodPut, "/salary/structures/bulk", req, uuid.NewString(), &out)
	return out, err
}

func (c *Client) Preview(ctx context.Context, req salary.SubmitRequest) (salary.Totals, error) {
	var out salary.Totals
	err := c.do(ctx, http.MethodPost, "/salary/structures/preview", req, "", &out)
	return out, err
}

type SlipList struct {
	Slips   []slip.Slip  `json:"slips"`
	Summary slip.Summary `json:"summary"`
	Months  []string     `json:"months"`
}

func (c *Client) ListSlips(ctx context.Context, f slip.Filter) (SlipList, error) {
	q := url.Values{}
	if f.Query != "" {
		q.Set("query", f.Query)
	}
	if f.Month != "" {
		q.Set("month", f.Month)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	path := "/salary/slips"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out SlipList
	err := c.do(ctx, http.MethodGet, path, nil, "", &out)
	return out, err
}

func (c *Client) SlipSummary(ctx context.Context) (slip.Summary, error) {
	var out slip.Summary
	err := c.do(ctx, http.MethodGet, "/salary/slips/summary", nil, "", &out)
	return out, err
}

// do sends an authenticated request, logging in first when no token is
// held and once more after a 401.
func (c *Client) do(ctx context.Context, method, path string, body any, idemKey string, out any) error {
	token := c.Token()
	if token == "" {
		if _, err := c.Login(ctx); err != nil {
			return err
		}
		token = c.Token()
	}

	err := c.send(ctx, method, path, body, token, idemKey, out)
	if !IsStatus(err, http.StatusUnauthorized) || c.email == "" {
		return err
	}
	c.log.Debug("token rejected, signing in again", zap.String("path", path))
	if _, err := c.Login(ctx); err != nil {
		return err
	}
	return c.send(ctx, method, path, body, c.Token(), idemKey, out)
}

func (c *Client) send(ctx context.Context, method, path string, body any, token, idemKey string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{Status: resp.StatusCode, Code: "invalid_response", Message: err.Error()}
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Code: "request_failed", Message: http.StatusText(resp.StatusCode)}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
