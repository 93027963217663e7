package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"crm-intake-backend/internal/domain"
)

// Config holds the messaging API settings
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client wraps the Resend REST endpoints used for contacts and segments
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a messaging client. A nil httpClient gets a default one
// with the configured timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

// IsConfigured checks that an API key is present
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

type segment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type segmentsResponse struct {
	Object  string    `json:"object"`
	HasMore bool      `json:"has_more"`
	Data    []segment `json:"data"`
}

type createContactRequest struct {
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Unsubscribed bool   `json:"unsubscribed"`
}

type createContactResponse struct {
	Object string `json:"object"`
	ID     string `json:"id"`
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

// ListSegments returns the first page of segments. Pagination is not followed.
func (c *Client) ListSegments(ctx context.Context) ([]domain.SegmentOption, error) {
	var resp segmentsResponse
	if err := c.request(ctx, http.MethodGet, "/segments", nil, &resp); err != nil {
		return nil, err
	}

	segments := make([]domain.SegmentOption, 0, len(resp.Data))
	for _, s := range resp.Data {
		segments = append(segments, domain.SegmentOption{ID: s.ID, Name: s.Name})
	}
	return segments, nil
}

// CreateContact creates a subscribed contact and returns its id
func (c *Client) CreateContact(ctx context.Context, payload *domain.ContactPayload) (string, error) {
	body := createContactRequest{
		Email:        payload.Email,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Unsubscribed: false,
	}

	var resp createContactResponse
	if err := c.request(ctx, http.MethodPost, "/contacts", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", domain.NewUnexpectedResponseError(domain.SystemMessaging, "Contact created without an id")
	}
	return resp.ID, nil
}

// AddContactToSegment enrolls one contact in one segment
func (c *Client) AddContactToSegment(ctx context.Context, contactID, segmentID string) error {
	endpoint := fmt.Sprintf("/contacts/%s/segments/%s", url.PathEscape(contactID), url.PathEscape(segmentID))
	return c.request(ctx, http.MethodPost, endpoint, nil, nil)
}

func (c *Client) request(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	if !c.IsConfigured() {
		return domain.NewConfigurationError(domain.SystemMessaging, "Resend API key not configured")
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewUnreachableError(domain.SystemMessaging, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewUnreachableError(domain.SystemMessaging, err)
	}

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		_ = json.Unmarshal(raw, &errResp)

		msg := errResp.Message
		if msg == "" {
			msg = fmt.Sprintf("Resend API error: %s", http.StatusText(resp.StatusCode))
		}
		return domain.NewRejectedError(domain.SystemMessaging, msg, fmt.Errorf("%s %s: status %d", method, endpoint, resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.IntegrationError{
			Kind:    domain.KindUnexpectedResponse,
			System:  domain.SystemMessaging,
			Message: "Unreadable Resend response",
			Err:     err,
		}
	}
	return nil
}
