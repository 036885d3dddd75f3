// Package client is a typed HTTP client for the quillpress API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/quillpress/quillpress/pkg/domain"
)

// Client is the quillpress API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client. token may be empty for anonymous calls.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithToken returns a copy of c that sends token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginResult carries the session record and the issued tokens.
type LoginResult struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int          `json:"expiresIn"`
}

// ProfileUpdate is a partial edit; nil fields are not sent.
type ProfileUpdate struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
	Location  *string `json:"location,omitempty"`
	Website   *string `json:"website,omitempty"`
	Twitter   *string `json:"twitter,omitempty"`
	LinkedIn  *string `json:"linkedin,omitempty"`
}

type Article struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Summary     string     `json:"summary,omitempty"`
	Body        string     `json:"body,omitempty"`
	Category    string     `json:"category,omitempty"`
	Tags        []string   `json:"tags"`
	AuthorName  string     `json:"authorName,omitempty"`
	Featured    bool       `json:"featured"`
	Views       int64      `json:"views"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

type ArticleQuery struct {
	Page     int
	Limit    int
	Category string
	Tag      string
	Text     string
}

type ArticlePage struct {
	Articles []Article `json:"articles"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

type PitchRequest struct {
	Title    string `json:"title"`
	Synopsis string `json:"synopsis"`
	Category string `json:"category,omitempty"`
}

type Pitch struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Synopsis  string    `json:"synopsis"`
	Category  string    `json:"category,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type userEnvelope struct {
	User *domain.User `json:"user"`
}

// WhoAmI fetches the account record for email. The token must belong to
// that account unless it is an admin's.
func (c *Client) WhoAmI(ctx context.Context, email string) (*domain.User, error) {
	params := url.Values{}
	params.Set("email", email)
	var out userEnvelope
	if err := c.get(ctx, "/api/auth/me?"+params.Encode(), &out); err != nil {
		return nil, fmt.Errorf("client.WhoAmI: %w", err)
	}
	if out.User == nil {
		return nil, fmt.Errorf("client.WhoAmI: response carried no user")
	}
	return out.User, nil
}

// Login exchanges credentials for tokens. The returned record has Token set.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/api/auth/login", body, &out); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	if out.User == nil {
		return nil, fmt.Errorf("client.Login: response carried no user")
	}
	if out.User.Token == "" {
		out.User.Token = out.AccessToken
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	var out userEnvelope
	if err := c.post(ctx, "/api/auth/register", req, &out); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return out.User, nil
}

// Refresh trades a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.post(ctx, "/api/auth/refresh", map[string]string{"refreshToken": refreshToken}, &out); err != nil {
		return "", fmt.Errorf("client.Refresh: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("client.Refresh: response carried no token")
	}
	return out.AccessToken, nil
}

// Logout ends the refresh session (if given) and revokes the client's token.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{}
	if refreshToken != "" {
		body["refreshToken"] = refreshToken
	}
	if err := c.post(ctx, "/api/auth/logout", body, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

func (c *Client) UpdateProfile(ctx context.Context, p ProfileUpdate) (*domain.User, error) {
	var out userEnvelope
	if err := c.doRequest(ctx, http.MethodPatch, "/api/profile", p, &out); err != nil {
		return nil, fmt.Errorf("client.UpdateProfile: %w", err)
	}
	return out.User, nil
}

// Subscribe turns the newsletter subscription on or off.
func (c *Client) Subscribe(ctx context.Context, on bool) (*domain.User, error) {
	method := http.MethodPost
	if !on {
		method = http.MethodDelete
	}
	var out userEnvelope
	if err := c.doRequest(ctx, method, "/api/subscribe", nil, &out); err != nil {
		return nil, fmt.Errorf("client.Subscribe: %w", err)
	}
	return out.User, nil
}

// ListArticles fetches a page of published articles.
func (c *Client) ListArticles(ctx context.Context, q ArticleQuery) (*ArticlePage, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Tag != "" {
		params.Set("tag", q.Tag)
	}
	if q.Text != "" {
		params.Set("q", q.Text)
	}
	path := "/api/articles"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var out ArticlePage
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("client.ListArticles: %w", err)
	}
	return &out, nil
}

func (c *Client) SubmitPitch(ctx context.Context, req PitchRequest) (*Pitch, error) {
	var out struct {
		Pitch *Pitch `json:"pitch"`
	}
	if err := c.post(ctx, "/api/pitches", req, &out); err != nil {
		return nil, fmt.Errorf("client.SubmitPitch: %w", err)
	}
	return out.Pitch, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var env struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(respBody, &env) == nil && env.Message != "" {
			msg := env.Message
			if env.Error != "" {
				msg += ": " + env.Error
			}
			return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
