// Package feed is the typed client for the external social-feed backend. The
// tracker only consumes its request/response contract; posts, comments, and
// the OAuth lifecycle live entirely on the other side.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// User is the authenticated feed identity, or absent when logged out.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Comment is a single comment nested under a post.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    User      `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Post is one feed entry with its ordered comments.
type Post struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	Author    User      `json:"author"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

// APIError reports a non-OK response from the feed backend. These are
// transient from the tracker's point of view; the user simply retries.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("feed api status %d: %s", e.Status, e.Body)
}

// Client talks to the feed backend with a cookie-based session.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a feed client rooted at baseURL.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second, Jar: jar},
	}, nil
}

// Me returns the authenticated user, or nil when the session is anonymous.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var body struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &body); err != nil {
		return nil, err
	}
	return body.User, nil
}

// ListPosts fetches the feed, newest first, with nested comments.
func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.do(ctx, http.MethodGet, "/api/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost publishes a post and returns its id. Requires an authenticated session.
func (c *Client) CreatePost(ctx context.Context, content, image string) (string, error) {
	payload := map[string]string{"content": content}
	if image != "" {
		payload["image"] = image
	}
	var body struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/posts", payload, &body); err != nil {
		return "", err
	}
	return body.ID, nil
}

// AddComment appends a comment to the post.
func (c *Client) AddComment(ctx context.Context, postID, content string) error {
	payload := map[string]string{"content": content}
	var body struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/posts/"+postID+"/comments", payload, &body); err != nil {
		return err
	}
	if !body.Success {
		return &APIError{Status: http.StatusOK, Body: "comment not accepted"}
	}
	return nil
}

// GoogleAuthURL fetches the OAuth consent URL the UI should open.
func (c *Client) GoogleAuthURL(ctx context.Context) (string, error) {
	var body struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/google/url", nil, &body); err != nil {
		return "", err
	}
	return body.URL, nil
}

// Logout terminates the feed session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var reqBody *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(buf.String())}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
