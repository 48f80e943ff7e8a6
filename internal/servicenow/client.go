package servicenow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

// Client wraps the ServiceNow Table API with basic-auth credentials held
// for the client's lifetime. Every operation is a single synchronous call;
// any non-2xx status is a hard error carrying the status and raw body.
type Client struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	logger   *slog.Logger
}

type Config struct {
	InstanceURL string
	Username    string
	Password    string
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  cfg.InstanceURL,
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{},
		logger:   logger,
	}
}

// User is a sys_user record projection.
type User struct {
	SysID string `json:"sys_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Story is an rm_story record projection.
type Story struct {
	SysID              string `json:"sys_id"`
	Number             string `json:"number"`
	ShortDescription   string `json:"short_description"`
	AcceptanceCriteria string `json:"acceptance_criteria,omitempty"`
}

// CreateStoryRequest carries the fields for a new story record.
type CreateStoryRequest struct {
	RequestedForSysID  string
	ShortDescription   string
	AcceptanceCriteria string
	AssignedToSysID    string
	ImplementationType string // defaults to "oob"
}

// LookupUser fetches the first user whose email starts with the given
// string. Returns nil (not an error) when no user matches.
func (c *Client) LookupUser(ctx context.Context, email string) (*User, error) {
	u := fmt.Sprintf(
		"%s/api/now/table/sys_user?sysparm_query=emailSTARTSWITH%s&sysparm_fields=sys_id,name,email&sysparm_limit=1",
		c.baseURL, url.QueryEscape(email),
	)

	var envelope struct {
		Result []User `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, u, nil, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Result) == 0 {
		return nil, nil
	}
	return &envelope.Result[0], nil
}

// CreateStory POSTs a new story record. assigned_to is included only when
// an assignee was provided.
func (c *Client) CreateStory(ctx context.Context, req CreateStoryRequest) (*Story, error) {
	implementationType := req.ImplementationType
	if implementationType == "" {
		implementationType = "oob"
	}

	payload := map[string]string{
		"u_requested_for":       req.RequestedForSysID,
		"short_description":     req.ShortDescription,
		"u_implementation_type": implementationType,
		"acceptance_criteria":   req.AcceptanceCriteria,
	}
	if req.AssignedToSysID != "" {
		payload["assigned_to"] = req.AssignedToSysID
	}

	u := fmt.Sprintf("%s/api/now/table/rm_story?sysparm_fields=sys_id,number,short_description", c.baseURL)

	var envelope struct {
		Result Story `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, u, payload, &envelope); err != nil {
		return nil, err
	}

	c.logger.Info("created story", "number", envelope.Result.Number, "sys_id", envelope.Result.SysID)
	return &envelope.Result, nil
}

// FindStories queries stories whose short description contains fragment
// (substring match, not exact). Matches come back in whatever order the
// upstream API returns them; callers typically take the first one, which
// is ambiguous when several stories share similar descriptions.
func (c *Client) FindStories(ctx context.Context, fragment string, limit int) ([]Story, error) {
	if limit <= 0 {
		limit = 10
	}

	u := fmt.Sprintf(
		"%s/api/now/table/rm_story?sysparm_query=short_descriptionLIKE%s&sysparm_fields=sys_id,number,short_description,acceptance_criteria&sysparm_limit=%d",
		c.baseURL, url.QueryEscape(fragment), limit,
	)

	var envelope struct {
		Result []Story `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, u, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Result, nil
}

// UpdateStory re-resolves the target via FindStories with limit 1 and
// issues a partial update against its sys_id. Returns nil (not an error)
// when no story matches the fragment.
func (c *Client) UpdateStory(ctx context.Context, fragment string, updates map[string]string) (*Story, error) {
	matches, err := c.FindStories(ctx, fragment, 1)
	if err != nil {
		return nil, fmt.Errorf("resolve story: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	u := fmt.Sprintf(
		"%s/api/now/table/rm_story/%s?sysparm_fields=sys_id,number,short_description,acceptance_criteria",
		c.baseURL, matches[0].SysID,
	)

	var envelope struct {
		Result Story `json:"result"`
	}
	if err := c.do(ctx, http.MethodPatch, u, updates, &envelope); err != nil {
		return nil, err
	}

	c.logger.Info("updated story", "number", envelope.Result.Number, "sys_id", envelope.Result.SysID)
	return &envelope.Result, nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("servicenow request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("servicenow api error %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
