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

	"github.com/roshank8848/contactmanager-backend/pkg/model"
)

// Client is a typed HTTP client for the contact manager REST API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// APIError is returned when the service answers with an error status. It
// carries the decoded error body so that callers can distinguish a missing
// contact from a validation problem.
type APIError struct {
	StatusCode int               `json:"-"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("contact manager API returned status %d: %s %v", e.StatusCode, e.Message, e.Fields)
	}
	return fmt.Sprintf("contact manager API returned status %d: %s", e.StatusCode, e.Message)
}

// ListOptions are the query parameters of the contact listing endpoint.
// Zero values are omitted, leaving the server defaults in charge.
type ListOptions struct {
	Skip   int
	Limit  int
	Search string
}

// New creates a client for the service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Health checks the liveness endpoint of the service.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

// Create stores a new contact and returns it including the assigned id.
func (c *Client) Create(ctx context.Context, changes model.ContactChanges) (*model.Contact, error) {
	var contact model.Contact
	if err := c.do(ctx, http.MethodPost, "/contacts", nil, changes, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// List returns contacts matching the given options in id order.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]model.Contact, error) {
	query := url.Values{}
	if opts.Skip > 0 {
		query.Set("skip", strconv.Itoa(opts.Skip))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}
	var contacts []model.Contact
	if err := c.do(ctx, http.MethodGet, "/contacts", query, nil, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// Get returns the contact with the given id.
func (c *Client) Get(ctx context.Context, id int64) (*model.Contact, error) {
	var contact model.Contact
	if err := c.do(ctx, http.MethodGet, contactPath(id), nil, nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// Update overwrites the supplied fields of the contact with the given id
// and returns the new version.
func (c *Client) Update(ctx context.Context, id int64, changes model.ContactChanges) (*model.Contact, error) {
	var contact model.Contact
	if err := c.do(ctx, http.MethodPut, contactPath(id), nil, changes, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// Delete removes the contact with the given id and returns its state from
// immediately before the deletion.
func (c *Client) Delete(ctx context.Context, id int64) (*model.Contact, error) {
	var contact model.Contact
	if err := c.do(ctx, http.MethodDelete, contactPath(id), nil, nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func contactPath(id int64) string {
	return "/contacts/" + strconv.FormatInt(id, 10)
}

// do executes one API request. A non-nil body is sent as JSON; a non-nil out
// receives the decoded response body. Error statuses are turned into
// *APIError values.
func (c *Client) do(ctx context.Context, method string, path string, query url.Values, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	requestURL := c.BaseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}
