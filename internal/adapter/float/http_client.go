// Package float implements ports.FloatClient against the Float API v3,
// including the page-counting retrieval loop all list endpoints need.
package float

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"toggl-float-bridge/internal/domain"
	"toggl-float-bridge/internal/ports"
)

const pageSize = 200

// Client implements ports.FloatClient.
type Client struct {
	baseURL  string
	apiToken string
	http     *http.Client
	log      *slog.Logger
}

func NewClient(baseURL, apiToken string, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.float.com/v3"
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

func (c *Client) ListPeople(ctx context.Context) ([]domain.Person, error) {
	raw, err := fetchAll[rawPerson](ctx, c, "/people", nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Person, 0, len(raw))
	for _, p := range raw {
		out = append(out, domain.Person{ID: p.PeopleID, Name: p.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]domain.FloatProject, error) {
	raw, err := fetchAll[rawProject](ctx, c, "/projects", nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.FloatProject, 0, len(raw))
	for _, p := range raw {
		var clientID *int64
		if p.ClientID != nil {
			id := *p.ClientID
			clientID = &id
		}
		out = append(out, domain.FloatProject{
			ID:       p.ProjectID,
			Name:     p.Name,
			Color:    p.Color,
			Active:   activeFlag(p.Active),
			ClientID: clientID,
		})
	}
	return out, nil
}

func (c *Client) ListPhases(ctx context.Context) ([]domain.FloatPhase, error) {
	raw, err := fetchAll[rawPhase](ctx, c, "/phases", nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.FloatPhase, 0, len(raw))
	for _, p := range raw {
		out = append(out, domain.FloatPhase{
			ID:        p.PhaseID,
			ProjectID: p.ProjectID,
			Name:      p.Name,
			Color:     p.Color,
			Active:    activeFlag(p.Active),
		})
	}
	return out, nil
}

func (c *Client) ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.FloatTask, error) {
	params := url.Values{}
	if f.PersonID != 0 {
		params.Set("people_id", strconv.FormatInt(f.PersonID, 10))
	}
	if f.ProjectID != 0 {
		params.Set("project_id", strconv.FormatInt(f.ProjectID, 10))
	}
	if !f.From.IsZero() {
		params.Set("start_date", f.From.Format(time.DateOnly))
	}
	if !f.To.IsZero() {
		params.Set("end_date", f.To.Format(time.DateOnly))
	}
	raw, err := fetchAll[rawTask](ctx, c, "/tasks", params)
	if err != nil {
		return nil, err
	}
	out := make([]domain.FloatTask, 0, len(raw))
	for _, t := range raw {
		out = append(out, domain.FloatTask{
			TaskID:        t.TaskID,
			TaskMetaID:    t.TaskMetaID,
			ProjectID:     t.ProjectID,
			PhaseID:       t.PhaseID,
			Name:          t.Name,
			Hours:         t.Hours,
			StartDate:     t.StartDate,
			EndDate:       t.EndDate,
			RepeatEndDate: stringOrEmpty(t.RepeatEndDate),
		})
	}
	return out, nil
}

func (c *Client) ListLoggedTime(ctx context.Context, from, to time.Time, personID int64) ([]domain.LoggedTime, error) {
	params := url.Values{}
	params.Set("start_date", from.Format(time.DateOnly))
	params.Set("end_date", to.Format(time.DateOnly))
	params.Set("people_id", strconv.FormatInt(personID, 10))

	raw, err := fetchAll[rawLoggedTime](ctx, c, "/logged-time", params)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LoggedTime, 0, len(raw))
	for _, lt := range raw {
		out = append(out, lt.toDomain())
	}
	return out, nil
}

func (c *Client) PostLoggedTime(ctx context.Context, entry domain.LoggedTime) error {
	body := rawLoggedTimeCreate{
		ProjectID:  entry.ProjectID,
		Date:       entry.Date,
		Hours:      entry.Hours,
		Notes:      entry.Notes,
		PeopleID:   entry.PersonID,
		PhaseID:    entry.PhaseID,
		TaskID:     entry.TaskID,
		TaskMetaID: entry.TaskMetaID,
	}
	if entry.TaskName != "" {
		body.TaskName = &entry.TaskName
	}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	u.Path += "/logged-time"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ports.APIError{Status: resp.StatusCode, Body: string(respBody)}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// fetchAll walks a page-based list endpoint: page 1 upward at a fixed page
// size until a page comes back empty. Any non-200 aborts the whole fetch
// with no partial result. The endpoint reports the total item count in
// X-Pagination-Total-Count, which is only used for progress logging.
func fetchAll[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	if c.apiToken == "" {
		return nil, errors.New("float: missing api token")
	}

	var all []T
	for page := 1; ; page++ {
		u, err := url.Parse(c.baseURL)
		if err != nil {
			return nil, err
		}
		u.Path += path

		q := url.Values{}
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("per-page", strconv.Itoa(pageSize))
		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &ports.APIError{Status: resp.StatusCode, Body: string(body)}
		}

		var items []T
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("float: decoding %s page %d: %w", path, page, err)
		}
		if len(items) == 0 {
			break
		}
		all = append(all, items...)

		if total := resp.Header.Get("X-Pagination-Total-Count"); total != "" {
			c.log.Debug("float fetch progress",
				slog.String("path", path),
				slog.Int("fetched", len(all)),
				slog.String("total", total),
			)
		}
	}
	return all, nil
}

func activeFlag(v *int) bool {
	return v == nil || *v != 0
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Raw structs mirror the Float v3 JSON bodies.
type rawPerson struct {
	PeopleID int64  `json:"people_id"`
	Name     string `json:"name"`
}

type rawProject struct {
	ProjectID int64  `json:"project_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Active    *int   `json:"active"`
	ClientID  *int64 `json:"client_id"`
}

type rawPhase struct {
	PhaseID   int64  `json:"phase_id"`
	ProjectID int64  `json:"project_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Active    *int   `json:"active"`
}

type rawTask struct {
	TaskID        int64   `json:"task_id"`
	TaskMetaID    int64   `json:"task_meta_id"`
	ProjectID     int64   `json:"project_id"`
	PhaseID       int64   `json:"phase_id"`
	Name          string  `json:"name"`
	Hours         float64 `json:"hours"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	RepeatEndDate *string `json:"repeat_end_date"`
}

type rawLoggedTime struct {
	LoggedTimeID string  `json:"logged_time_id"`
	Date         string  `json:"date"`
	Hours        float64 `json:"hours"`
	Notes        *string `json:"notes"`
	PeopleID     int64   `json:"people_id"`
	ProjectID    int64   `json:"project_id"`
	PhaseID      *int64  `json:"phase_id"`
	TaskID       *int64  `json:"task_id"`
	TaskMetaID   *int64  `json:"task_meta_id"`
	TaskName     *string `json:"task_name"`
}

func (r rawLoggedTime) toDomain() domain.LoggedTime {
	return domain.LoggedTime{
		ID:         r.LoggedTimeID,
		Date:       r.Date,
		Hours:      r.Hours,
		Notes:      stringOrEmpty(r.Notes),
		PersonID:   r.PeopleID,
		ProjectID:  r.ProjectID,
		PhaseID:    r.PhaseID,
		TaskID:     r.TaskID,
		TaskMetaID: r.TaskMetaID,
		TaskName:   stringOrEmpty(r.TaskName),
	}
}

type rawLoggedTimeCreate struct {
	ProjectID  int64   `json:"project_id"`
	Date       string  `json:"date"`
	Hours      float64 `json:"hours"`
	Notes      string  `json:"notes,omitempty"`
	PeopleID   int64   `json:"people_id"`
	PhaseID    *int64  `json:"phase_id,omitempty"`
	TaskID     *int64  `json:"task_id,omitempty"`
	TaskMetaID *int64  `json:"task_meta_id,omitempty"`
	TaskName   *string `json:"task_name,omitempty"`
}
