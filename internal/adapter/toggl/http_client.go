// Package toggl implements ports.TogglClient against the Toggl Track API v9.
package toggl

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"toggl-float-bridge/internal/domain"
	"toggl-float-bridge/internal/ports"
)

// Client implements ports.TogglClient.
type Client struct {
	baseURL  string
	apiToken string
	http     *http.Client
	log      *slog.Logger
}

func NewClient(baseURL, apiToken string, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.track.toggl.com"
	}
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// Workspace returns the first workspace the token can see. All mutating
// calls are scoped to it.
func (c *Client) Workspace(ctx context.Context) (domain.Workspace, error) {
	var raw []rawWorkspace
	if err := c.getJSON(ctx, "/api/v9/me/workspaces", nil, &raw); err != nil {
		return domain.Workspace{}, err
	}
	if len(raw) == 0 {
		return domain.Workspace{}, errors.New("toggl: no workspace available for this token")
	}
	return domain.Workspace{ID: raw[0].ID, Name: raw[0].Name}, nil
}

// ListTimeEntries fetches entries in [from, to).
func (c *Client) ListTimeEntries(ctx context.Context, from, to time.Time) ([]domain.TimeEntry, error) {
	q := url.Values{}
	q.Set("start_date", from.Format(time.DateOnly))
	q.Set("end_date", to.Format(time.DateOnly))

	var raw []rawTimeEntry
	if err := c.getJSON(ctx, "/api/v9/me/time_entries", q, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.TimeEntry, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// ListProjects fetches all projects accessible to the token.
func (c *Client) ListProjects(ctx context.Context) ([]domain.MirrorProject, error) {
	var raw []rawProject
	if err := c.getJSON(ctx, "/api/v9/me/projects", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.MirrorProject, 0, len(raw))
	for _, p := range raw {
		var clientID *int64
		if p.ClientID != nil {
			id := *p.ClientID
			clientID = &id
		}
		out = append(out, domain.MirrorProject{
			ID:          p.ID,
			WorkspaceID: p.WorkspaceID,
			Name:        p.Name,
			Active:      p.Active,
			Private:     p.Private,
			Color:       p.Color,
			ClientID:    clientID,
			At:          p.At,
		})
	}
	return out, nil
}

func (c *Client) CreateProject(ctx context.Context, workspaceID int64, p domain.ProjectPayload) error {
	path := fmt.Sprintf("/api/v9/workspaces/%d/projects", workspaceID)
	return c.send(ctx, http.MethodPost, path, projectBody(p))
}

func (c *Client) UpdateProject(ctx context.Context, workspaceID, projectID int64, p domain.ProjectPayload) error {
	path := fmt.Sprintf("/api/v9/workspaces/%d/projects/%d", workspaceID, projectID)
	return c.send(ctx, http.MethodPut, path, projectBody(p))
}

func (c *Client) DeleteProject(ctx context.Context, workspaceID, projectID int64) error {
	path := fmt.Sprintf("/api/v9/workspaces/%d/projects/%d", workspaceID, projectID)
	return c.send(ctx, http.MethodDelete, path, nil)
}

func (c *Client) ListTags(ctx context.Context) ([]domain.Tag, error) {
	var raw []rawTag
	if err := c.getJSON(ctx, "/api/v9/me/tags", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Tag, 0, len(raw))
	for _, t := range raw {
		out = append(out, domain.Tag{ID: t.ID, Name: t.Name})
	}
	return out, nil
}

func (c *Client) CreateTag(ctx context.Context, workspaceID int64, name string) error {
	path := fmt.Sprintf("/api/v9/workspaces/%d/tags", workspaceID)
	return c.send(ctx, http.MethodPost, path, tagCreate{WorkspaceID: workspaceID, Name: name})
}

func (c *Client) UpdateTimeEntryProject(ctx context.Context, workspaceID, entryID, projectID int64) error {
	path := fmt.Sprintf("/api/v9/workspaces/%d/time_entries/%d", workspaceID, entryID)
	return c.send(ctx, http.MethodPut, path, timeEntryProjectUpdate{ProjectID: projectID})
}

// CurrentTimeEntry returns the running entry, or nil when none is running.
func (c *Client) CurrentTimeEntry(ctx context.Context) (*domain.TimeEntry, error) {
	var raw *rawTimeEntry
	if err := c.getJSON(ctx, "/api/v9/me/time_entries/current", nil, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	entry := raw.toDomain()
	return &entry, nil
}

// StartTimer creates a new running entry for the project with a single tag.
func (c *Client) StartTimer(ctx context.Context, workspaceID, projectID int64, tag string) error {
	path := fmt.Sprintf("/api/v9/workspaces/%d/time_entries", workspaceID)
	body := timeEntryCreate{
		CreatedWith: "toggl-float-bridge",
		Duration:    -1,
		ProjectID:   projectID,
		Start:       time.Now().Format(time.RFC3339),
		Tags:        tagList(tag),
		WorkspaceID: workspaceID,
	}
	return c.send(ctx, http.MethodPost, path, body)
}

// AssignRunningEntry rewrites a running blank entry in place instead of
// starting a second timer.
func (c *Client) AssignRunningEntry(ctx context.Context, workspaceID, entryID, projectID int64, tag string) error {
	path := fmt.Sprintf("/api/v9/workspaces/%d/time_entries/%d", workspaceID, entryID)
	body := timeEntryAssign{
		ID:          entryID,
		ProjectID:   projectID,
		Tags:        tagList(tag),
		WorkspaceID: workspaceID,
		TagAction:   "add",
	}
	return c.send(ctx, http.MethodPut, path, body)
}

func tagList(tag string) []string {
	if tag == "" {
		return nil
	}
	return []string{tag}
}

// getJSON performs an authenticated GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c.apiToken == "" {
		return errors.New("toggl: missing api token")
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	u.Path = path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// send performs an authenticated mutating request. 200 and 201 count as
// success; everything else surfaces as *ports.APIError for the retry policy.
func (c *Client) send(ctx context.Context, method, path string, body any) error {
	if c.apiToken == "" {
		return errors.New("toggl: missing api token")
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	u.Path = path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	c.authorize(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return readAPIError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// authorize sets basic auth in Toggl's token:api_token form.
func (c *Client) authorize(req *http.Request) {
	auth := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%s", c.apiToken, "api_token")))
	req.Header.Set("Authorization", "Basic "+auth)
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &ports.APIError{Status: resp.StatusCode, Body: string(body)}
}

func projectBody(p domain.ProjectPayload) rawProjectPayload {
	out := rawProjectPayload{Name: p.Name, Active: p.Active}
	if p.Color != "" {
		out.Color = &p.Color
	}
	return out
}

// rawTimeEntry mirrors the JSON from Toggl v9.
type rawTimeEntry struct {
	ID          int64      `json:"id"`
	Description string     `json:"description"`
	ProjectID   *int64     `json:"project_id"`
	WorkspaceID *int64     `json:"workspace_id"`
	Tags        []string   `json:"tags"`
	Billable    bool       `json:"billable"`
	Start       time.Time  `json:"start"`
	Stop        *time.Time `json:"stop"`
	Duration    int64      `json:"duration"`
}

func (r rawTimeEntry) toDomain() domain.TimeEntry {
	var stopPtr *time.Time
	if r.Stop != nil {
		stop := *r.Stop
		stopPtr = &stop
	}
	var projectPtr *int64
	if r.ProjectID != nil {
		p := *r.ProjectID
		projectPtr = &p
	}
	var wsPtr *int64
	if r.WorkspaceID != nil {
		w := *r.WorkspaceID
		wsPtr = &w
	}
	return domain.TimeEntry{
		ID:          r.ID,
		Description: r.Description,
		ProjectID:   projectPtr,
		WorkspaceID: wsPtr,
		Tags:        r.Tags,
		Billable:    r.Billable,
		Start:       r.Start,
		Stop:        stopPtr,
		DurationSec: r.Duration,
	}
}

type rawProject struct {
	ID          int64     `json:"id"`
	WorkspaceID int64     `json:"workspace_id"`
	Name        string    `json:"name"`
	Active      bool      `json:"active"`
	Private     bool      `json:"is_private"`
	Color       string    `json:"color"`
	ClientID    *int64    `json:"client_id"`
	At          time.Time `json:"at"`
}

type rawWorkspace struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type rawTag struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	WorkspaceID int64  `json:"workspace_id"`
}

type rawProjectPayload struct {
	Name   string  `json:"name"`
	Color  *string `json:"color,omitempty"`
	Active bool    `json:"active"`
}

type tagCreate struct {
	WorkspaceID int64  `json:"workspace_id"`
	Name        string `json:"name"`
}

type timeEntryProjectUpdate struct {
	ProjectID int64 `json:"project_id"`
}

type timeEntryCreate struct {
	CreatedWith string   `json:"created_with"`
	Duration    int64    `json:"duration"`
	ProjectID   int64    `json:"project_id"`
	Start       string   `json:"start"`
	Tags        []string `json:"tags"`
	WorkspaceID int64    `json:"workspace_id"`
}

type timeEntryAssign struct {
	ID          int64    `json:"id"`
	ProjectID   int64    `json:"project_id"`
	Tags        []string `json:"tags"`
	WorkspaceID int64    `json:"workspace_id"`
	TagAction   string   `json:"tag_action"`
}
