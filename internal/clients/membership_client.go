// internal/clients/membership_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"membershipd/internal/membership"
)

// ErrNotFound is returned when the service answers 404.
var ErrNotFound = errors.New("membership not found")

// StatusError is a non-success answer from the service.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Message)
}

type MembershipClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewMembershipClient returns a client for the service rooted at baseURL
// (for example http://localhost:8083).
func NewMembershipClient(baseURL string) *MembershipClient {
	return &MembershipClient{baseURL: baseURL, httpClient: http.DefaultClient}
}

// WithToken returns a copy of the client that sends token as its bearer credential.
func (c *MembershipClient) WithToken(token string) *MembershipClient {
	cp := *c
	cp.token = token
	return &cp
}

// WithHTTPClient returns a copy of the client using hc.
func (c *MembershipClient) WithHTTPClient(hc *http.Client) *MembershipClient {
	cp := *c
	cp.httpClient = hc
	return &cp
}

// envelope covers every body the service sends.
type envelope struct {
	Memberships []membership.Resource       `json:"memberships"`
	Membership  *membership.Resource        `json:"membership"`
	Error       *membership.ValidationError `json:"error"`
	Message     string                      `json:"message"`
}

func (c *MembershipClient) List(ctx context.Context) ([]membership.Resource, error) {
	env, err := c.do(ctx, http.MethodGet, "/membership", nil)
	if err != nil {
		return nil, err
	}
	return env.Memberships, nil
}

// Create stores a membership for the caller named by the client's token.
func (c *MembershipClient) Create(ctx context.Context, status, position string) (*membership.Resource, error) {
	body := map[string]string{"status": status, "position": position}
	env, err := c.do(ctx, http.MethodPost, "/membership", body)
	if err != nil {
		return nil, err
	}
	return env.Membership, nil
}

func (c *MembershipClient) Get(ctx context.Context, id int64) (*membership.Resource, error) {
	env, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/membership/%d", id), nil)
	if err != nil {
		return nil, err
	}
	return env.Membership, nil
}

// Update sends only the fields set in patch.
func (c *MembershipClient) Update(ctx context.Context, id int64, patch membership.Patch) (*membership.Resource, error) {
	body := make(map[string]any)
	if patch.UserID.Set {
		body["user_id"] = patch.UserID.Value
	}
	if patch.Status.Set {
		body["status"] = patch.Status.Value
	}
	if patch.Position.Set {
		body["position"] = patch.Position.Value
	}
	env, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/membership/%d", id), body)
	if err != nil {
		return nil, err
	}
	return env.Membership, nil
}

func (c *MembershipClient) Delete(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/membership/%d", id), nil)
	return err
}

func (c *MembershipClient) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	env := &envelope{}
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(env); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}

	// Validation failures may arrive with a 200.
	if env.Error != nil {
		return nil, env.Error
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 300:
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return env, nil
}
