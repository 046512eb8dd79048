package boardview

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskboard/internal/dto"
	"taskboard/internal/reorder"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// APIError is a non-2xx answer of the REST API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// HTTPClient implements API over the REST endpoints.
type HTTPClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

var _ API = (*HTTPClient)(nil)

func (c *HTTPClient) Board(ctx context.Context, boardID uuid.UUID) (*dto.Board, error) {
	var board dto.Board
	if err := c.do(ctx, http.MethodGet, "/boards/"+boardID.String(), nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

func (c *HTTPClient) Tasks(ctx context.Context, boardID uuid.UUID) ([]dto.Task, error) {
	var tasks []dto.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/board/"+boardID.String(), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *HTTPClient) Reorder(ctx context.Context, entries []reorder.Placement) ([]dto.Task, error) {
	var out struct {
		Tasks []dto.Task `json:"tasks"`
	}
	body := map[string]any{"tasks": entries}
	if err := c.do(ctx, http.MethodPatch, "/tasks/reorder", body, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		_ = sonic.Unmarshal(data, &e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return sonic.Unmarshal(data, out)
}
