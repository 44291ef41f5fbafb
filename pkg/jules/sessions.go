package jules

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNameRequired   = errors.New("jules: resource name is required")
	ErrPromptRequired = errors.New("jules: prompt is required")
	ErrSourceRequired = errors.New("jules: source is required")
)

// ListSessions returns the most recent sessions. A pageSize of 0 uses
// DefaultPageSize.
func (c *Client) ListSessions(ctx context.Context, pageSize int) ([]Session, error) {
	var resp listSessionsResponse
	if err := c.http.request(ctx, http.MethodGet, "/sessions"+pageQuery(pageSize), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Sessions == nil {
		return []Session{}, nil
	}
	return resp.Sessions, nil
}

// CreateSession starts a new session.
func (c *Client) CreateSession(ctx context.Context, req *CreateSessionRequest) (*Session, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrPromptRequired
	}
	if req.Source == "" {
		return nil, ErrSourceRequired
	}
	branch := req.StartingBranch
	if branch == "" {
		branch = c.config.startingBranch
	}
	title := req.Title
	if title == "" {
		title = defaultTitle(req.Prompt)
	}
	body := createSessionBody{
		Prompt: req.Prompt,
		SourceContext: SourceContext{
			Source:            req.Source,
			GithubRepoContext: &GithubRepoContext{StartingBranch: branch},
		},
		Title: title,
	}
	var s Session
	if err := c.http.request(ctx, http.MethodPost, "/sessions", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSession returns a session by resource name ("sessions/{id}").
func (c *Client) GetSession(ctx context.Context, name string) (*Session, error) {
	path, err := resourcePath(name)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := c.http.request(ctx, http.MethodGet, path, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ApprovePlan approves the plan a session is waiting on.
func (c *Client) ApprovePlan(ctx context.Context, name string) error {
	path, err := resourcePath(name)
	if err != nil {
		return err
	}
	return c.http.request(ctx, http.MethodPost, path+":approvePlan", struct{}{}, nil)
}

// SendMessage sends a follow-up message to a session.
func (c *Client) SendMessage(ctx context.Context, name, text string) error {
	path, err := resourcePath(name)
	if err != nil {
		return err
	}
	var body sendMessageBody
	body.Message.Text = text
	return c.http.request(ctx, http.MethodPost, path+":sendMessage", body, nil)
}

// ListActivities returns the latest activities of a session.
func (c *Client) ListActivities(ctx context.Context, name string, pageSize int) ([]Activity, error) {
	path, err := resourcePath(name)
	if err != nil {
		return nil, err
	}
	var resp listActivitiesResponse
	if err := c.http.request(ctx, http.MethodGet, path+"/activities"+pageQuery(pageSize), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Activities == nil {
		return []Activity{}, nil
	}
	return resp.Activities, nil
}

// ListSources returns the repositories connected to Jules.
func (c *Client) ListSources(ctx context.Context, pageSize int) ([]Source, error) {
	var resp listSourcesResponse
	if err := c.http.request(ctx, http.MethodGet, "/sources"+pageQuery(pageSize), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Sources == nil {
		return []Source{}, nil
	}
	return resp.Sources, nil
}

func pageQuery(pageSize int) string {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return fmt.Sprintf("?pageSize=%d", pageSize)
}

// resourcePath turns "sessions/123" into "/sessions/123". The name is used
// verbatim since resource names contain slashes.
func resourcePath(name string) (string, error) {
	name = strings.Trim(strings.TrimSpace(name), "/")
	if name == "" {
		return "", ErrNameRequired
	}
	return "/" + name, nil
}

func defaultTitle(prompt string) string {
	r := []rune(prompt)
	if len(r) > titleLength {
		r = r[:titleLength]
	}
	return string(r)
}
