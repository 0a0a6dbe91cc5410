package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/events"
)

// CatalogClient hands approved submissions to the catalog materializer.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewCatalogClient(baseURL string, log *zap.Logger) *CatalogClient {
	return &CatalogClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

func (c *CatalogClient) Apply(ctx context.Context, reviewed *events.SubmissionReviewed) error {
	body, err := json.Marshal(reviewed)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/internal/submissions/%s/apply", c.baseURL, reviewed.SubmissionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog service unavailable: %w", err)
	}
	defer resp.Body.Close()

	// 409 means the materializer already applied this submission.
	if resp.StatusCode == http.StatusConflict {
		c.log.Info("submission already applied", zap.String("submission_id", reviewed.SubmissionID.String()))
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("catalog service returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
