package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crm-intake-backend/internal/domain"
)

const (
	columnsQuery = `query ($boardId: [ID!]) {
  boards(ids: $boardId) {
    columns {
      id
      title
      type
      settings_str
    }
  }
}`

	createItemMutation = `mutation ($boardId: ID!, $itemName: String!, $columnValues: JSON!) {
  create_item(board_id: $boardId, item_name: $itemName, column_values: $columnValues) {
    id
    name
  }
}`
)

// Config holds the board API settings
type Config struct {
	APIURL     string
	Token      string
	BoardID    string
	APIVersion string
	Timeout    time.Duration
}

// Client is a minimal GraphQL client for the monday.com board API
type Client struct {
	apiURL     string
	token      string
	boardID    string
	apiVersion string
	httpClient *http.Client
}

// NewClient creates a board client. A nil httpClient gets a default one with
// the configured timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiURL:     cfg.APIURL,
		token:      cfg.Token,
		boardID:    cfg.BoardID,
		apiVersion: cfg.APIVersion,
		httpClient: httpClient,
	}
}

// IsConfigured checks that the token and board id are present
func (c *Client) IsConfigured() bool {
	return c.apiURL != "" && c.token != "" && c.boardID != ""
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data         json.RawMessage `json:"data"`
	Errors       []graphQLError  `json:"errors"`
	ErrorMessage string          `json:"error_message"`
	ErrorCode    string          `json:"error_code"`
}

// messages flattens both error conventions the API uses: a GraphQL errors
// list and a top-level error_message.
func (r *graphQLResponse) messages() []string {
	var out []string
	for _, e := range r.Errors {
		msg := e.Message
		if msg == "" {
			msg = "Unknown Monday.com error"
		}
		out = append(out, msg)
	}
	if r.ErrorMessage != "" {
		out = append(out, r.ErrorMessage)
	}
	return out
}

// FetchColumns returns the column schema of the configured board
func (c *Client) FetchColumns(ctx context.Context) ([]domain.BoardColumn, error) {
	if !c.IsConfigured() {
		return nil, domain.NewConfigurationError(domain.SystemBoard, "Monday.com configuration missing")
	}

	resp, _, err := c.do(ctx, columnsQuery, map[string]interface{}{
		"boardId": []string{c.boardID},
	})
	if err != nil {
		return nil, err
	}

	var data struct {
		Boards []struct {
			Columns []domain.BoardColumn `json:"columns"`
		} `json:"boards"`
	}
	if len(resp.Data) > 0 && string(resp.Data) != "null" {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return nil, domain.NewUnexpectedResponseError(domain.SystemBoard, "Malformed board schema response")
		}
	}

	if len(data.Boards) == 0 {
		if msgs := resp.messages(); len(msgs) > 0 {
			return nil, domain.NewRejectedError(domain.SystemBoard, msgs[0], nil)
		}
		return nil, domain.NewUnexpectedResponseError(domain.SystemBoard, fmt.Sprintf("Board %s not found", c.boardID))
	}

	return data.Boards[0].Columns, nil
}

// CreateItem sends the create_item mutation. The response is returned as-is:
// a created item and an error list may both be present, and deciding what
// that means is left to the caller. Only transport failures and undecodable
// bodies are returned as errors, together with a response holding the raw
// body when one was read.
func (c *Client) CreateItem(ctx context.Context, payload *domain.BoardWritePayload) (*domain.BoardWriteResponse, error) {
	if !c.IsConfigured() {
		return nil, domain.NewConfigurationError(domain.SystemBoard, "Monday.com configuration missing")
	}

	// column_values is typed JSON but must be sent as an encoded string
	columnValues, err := json.Marshal(payload.ColumnValues)
	if err != nil {
		return nil, fmt.Errorf("failed to encode column values: %w", err)
	}

	resp, raw, err := c.do(ctx, createItemMutation, map[string]interface{}{
		"boardId":      c.boardID,
		"itemName":     payload.ItemName,
		"columnValues": string(columnValues),
	})
	if err != nil {
		if raw != nil {
			return &domain.BoardWriteResponse{Raw: raw}, err
		}
		return nil, err
	}

	var data struct {
		CreateItem *domain.BoardItem `json:"create_item"`
	}
	if len(resp.Data) > 0 && string(resp.Data) != "null" {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return &domain.BoardWriteResponse{Raw: raw}, domain.NewUnexpectedResponseError(domain.SystemBoard, "Malformed create_item response")
		}
	}

	out := &domain.BoardWriteResponse{
		Errors: resp.messages(),
		Raw:    raw,
	}
	if data.CreateItem != nil && data.CreateItem.ID != "" {
		out.Item = data.CreateItem
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, query string, variables map[string]interface{}) (*graphQLResponse, []byte, error) {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)
	if c.apiVersion != "" {
		req.Header.Set("API-Version", c.apiVersion)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, domain.NewUnreachableError(domain.SystemBoard, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, domain.NewUnreachableError(domain.SystemBoard, err)
	}

	var gqlResp graphQLResponse
	decodeErr := json.Unmarshal(raw, &gqlResp)

	if resp.StatusCode >= 400 {
		// Error bodies that follow one of the documented shapes are handed
		// back like any other response.
		if decodeErr == nil && len(gqlResp.messages()) > 0 {
			return &gqlResp, raw, nil
		}
		return nil, raw, domain.NewRejectedError(
			domain.SystemBoard,
			fmt.Sprintf("Monday.com API error: %s", http.StatusText(resp.StatusCode)),
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(raw, 512)),
		)
	}

	if decodeErr != nil {
		return nil, raw, &domain.IntegrationError{
			Kind:    domain.KindUnexpectedResponse,
			System:  domain.SystemBoard,
			Message: "Unreadable Monday.com response",
			Err:     fmt.Errorf("%w: %s", decodeErr, truncate(raw, 512)),
		}
	}

	return &gqlResp, raw, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
