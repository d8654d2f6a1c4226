package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tracker-service/internal/models"
)

// HTTPFallback posts locations over REST when the socket is down.
type HTTPFallback struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPFallback(baseURL, token string) *HTTPFallback {
	return &HTTPFallback{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// PostLocation sends POST /api/locations and returns the stored record.
func (f *HTTPFallback) PostLocation(ctx context.Context, in models.LocationInput) (models.LocationEvent, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return models.LocationEvent{}, fmt.Errorf("marshal location: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/api/locations", bytes.NewReader(body))
	if err != nil {
		return models.LocationEvent{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return models.LocationEvent{}, fmt.Errorf("post location: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return models.LocationEvent{}, fmt.Errorf("post location: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var loc models.LocationEvent
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return models.LocationEvent{}, fmt.Errorf("decode location: %w", err)
	}
	return loc, nil
}
