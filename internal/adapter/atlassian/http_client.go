// Package atlassian implements ports.AtlassianClient against the Jira Cloud
// REST API v3 using email + API-token basic auth.
package atlassian

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"toggl-float-bridge/internal/ports"
)

// jiraStarted is the timestamp layout Jira requires on worklogs.
const jiraStarted = "2006-01-02T15:04:05.000-0700"

// Client implements ports.AtlassianClient.
type Client struct {
	baseURL string
	auth    string
	http    *http.Client
	log     *slog.Logger
}

// NewClient builds a client for the given Jira Cloud host, e.g.
// "https://example.atlassian.net".
func NewClient(host, email, apiToken string, log *slog.Logger) *Client {
	return &Client{
		baseURL: host + "/rest/api/3",
		auth:    "Basic " + base64.StdEncoding.EncodeToString([]byte(email+":"+apiToken)),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// WorklogCount reports how many of the caller's worklogs exist on the issue
// within the calendar day of the given time.
func (c *Client) WorklogCount(ctx context.Context, issueID string, day time.Time) (int, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	q := url.Values{}
	q.Set("startedAfter", strconv.FormatInt(dayStart.UnixMilli(), 10))
	q.Set("startedBefore", strconv.FormatInt(dayEnd.UnixMilli(), 10))

	var out struct {
		Total int `json:"total"`
	}
	if err := c.getJSON(ctx, "/issue/"+url.PathEscape(issueID)+"/worklog", q, &out); err != nil {
		return 0, err
	}
	return out.Total, nil
}

// HasPermission reports whether the authenticated user may log work on the
// issue.
func (c *Client) HasPermission(ctx context.Context, issueID string) (bool, error) {
	q := url.Values{}
	q.Set("issueKey", issueID)
	q.Set("permissions", "WORK_ON_ISSUES")

	var out struct {
		Permissions map[string]struct {
			HavePermission bool `json:"havePermission"`
		} `json:"permissions"`
	}
	if err := c.getJSON(ctx, "/mypermissions", q, &out); err != nil {
		return false, err
	}
	return out.Permissions["WORK_ON_ISSUES"].HavePermission, nil
}

// PostWorklog logs the given number of seconds on the issue, starting at
// started, with a plain-text comment.
func (c *Client) PostWorklog(ctx context.Context, issueID string, started time.Time, seconds int64, comment string) error {
	body := rawWorklog{
		Started:          started.Format(jiraStarted),
		TimeSpentSeconds: seconds,
		Comment:          commentDoc(comment),
	}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/issue/"+url.PathEscape(issueID)+"/worklog", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Content-Type", "application/json")

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
	c.log.Debug("posted worklog",
		slog.String("issue", issueID),
		slog.Int64("seconds", seconds),
	)
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &ports.APIError{Status: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("atlassian: decoding %s: %w", path, err)
	}
	return nil
}

type rawWorklog struct {
	Started          string `json:"started"`
	TimeSpentSeconds int64  `json:"timeSpentSeconds"`
	Comment          rawADF `json:"comment"`
}

// rawADF is the minimal Atlassian Document Format wrapper for a single
// paragraph of text, which is all a worklog comment needs.
type rawADF struct {
	Type    string       `json:"type"`
	Version int          `json:"version"`
	Content []rawADFNode `json:"content"`
}

type rawADFNode struct {
	Type    string       `json:"type"`
	Content []rawADFText `json:"content,omitempty"`
	Text    string       `json:"text,omitempty"`
}

type rawADFText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func commentDoc(text string) rawADF {
	return rawADF{
		Type:    "doc",
		Version: 1,
		Content: []rawADFNode{{
			Type:    "paragraph",
			Content: []rawADFText{{Type: "text", Text: text}},
		}},
	}
}
