package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/common"
)

const apiPrefix = "/api/v1/user"

// HTTPClient implements Client over the JSON API.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	jar     http.CookieJar
	session *SessionStore
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// NewHTTPClient builds a client for the API at baseURL and restores a saved
// session from store.
func NewHTTPClient(baseURL string, timeout time.Duration, store *SessionStore) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q must include scheme and host", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &HTTPClient{
		baseURL: u,
		http:    &http.Client{Jar: jar, Timeout: timeout},
		jar:     jar,
		session: store,
	}

	token, err := store.Load()
	if err != nil {
		return nil, err
	}
	if token != "" {
		c.setToken(token)
	}

	return c, nil
}

func (c *HTTPClient) setToken(token string) {
	c.jar.SetCookies(c.baseURL, []*http.Cookie{{
		Name:  common.SessionCookieName,
		Value: token,
		Path:  "/",
	}})
}

func (c *HTTPClient) token() string {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == common.SessionCookieName {
			return ck.Value
		}
	}
	return ""
}

// HasSession reports whether a session cookie is currently held.
func (c *HTTPClient) HasSession() bool {
	return c.token() != ""
}

// persistSession mirrors the jar's session cookie into the session file.
func (c *HTTPClient) persistSession() error {
	if t := c.token(); t != "" {
		return c.session.Save(t)
	}
	return c.session.Clear()
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*apiResponse, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &APIError{Status: resp.StatusCode, Message: resp.Status}
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !out.Success {
		return nil, &APIError{Status: resp.StatusCode, Message: out.Message}
	}

	return &out, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil)
	return err
}

func (c *HTTPClient) Register(ctx context.Context, name, email string, password []byte, adminSecret string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, apiPrefix+"/register", map[string]string{
		"name":        name,
		"email":       email,
		"password":    string(password),
		"adminSecret": adminSecret,
	})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) VerifyEmail(ctx context.Context, email, otp string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, apiPrefix+"/verify-email", map[string]string{
		"email": email,
		"otp":   otp,
	})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (*User, error) {
	resp, err := c.do(ctx, http.MethodPost, apiPrefix+"/login", map[string]string{
		"email":    email,
		"password": string(password),
	})
	if err != nil {
		return nil, err
	}
	if err := c.persistSession(); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, apiPrefix+"/me", nil)
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Logout asks the server to expire the cookie and forgets the local
// session even when the call fails.
func (c *HTTPClient) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, apiPrefix+"/logout", nil)

	c.jar.SetCookies(c.baseURL, []*http.Cookie{{Name: common.SessionCookieName, Path: "/", MaxAge: -1}})
	if clearErr := c.session.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, apiPrefix+"/password/forgot", map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) ResetPassword(ctx context.Context, email, otp string, newPassword, confirm []byte) (string, error) {
	resp, err := c.do(ctx, http.MethodPut, apiPrefix+"/password/reset", map[string]string{
		"email":              email,
		"otp":                otp,
		"newPassword":        string(newPassword),
		"confirmNewPassword": string(confirm),
	})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) UpdatePassword(ctx context.Context, oldPassword, newPassword, confirm []byte) (*User, error) {
	resp, err := c.do(ctx, http.MethodPut, apiPrefix+"/password/update", map[string]string{
		"oldPassword":        string(oldPassword),
		"newPassword":        string(newPassword),
		"confirmNewPassword": string(confirm),
	})
	if err != nil {
		return nil, err
	}
	if err := c.persistSession(); err != nil {
		return nil, err
	}
	return resp.User, nil
}

var _ Client = (*HTTPClient)(nil)
