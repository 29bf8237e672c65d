package widget

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"reco-core/internal/domain/entity"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const RecommendPath = "/api/recommend"

// Response is the endpoint payload. Error is a pointer so that an empty
// error string is still recognised as a failure.
type Response struct {
	UserID          string                  `json:"user_id"`
	Recommendations []entity.Recommendation `json:"recommendations"`
	Error           *string                 `json:"error,omitempty"`
}

// ServiceError is a failure reported by the endpoint in its error field.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

// TransportError covers network failures and bodies that are not valid JSON.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient targets baseURL. A zero timeout leaves only the transport's own limits.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + RecommendPath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Recommend posts the already-trimmed user id. The body is decoded
// regardless of the status code since errors travel in the payload.
func (c *Client) Recommend(ctx context.Context, userID string) (*Response, error) {
	body, err := json.Marshal(entity.RecommendationRequest{UserID: userID})
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)}
	}
	if out.Error != nil {
		return &out, &ServiceError{Status: resp.StatusCode, Message: *out.Error}
	}
	return &out, nil
}
