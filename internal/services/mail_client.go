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
)

// MailClient sends transactional mail through the mailer service.
type MailClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewMailClient(baseURL string, log *zap.Logger) *MailClient {
	return &MailClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

func (c *MailClient) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(map[string]string{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("failed to reach mailer", zap.Error(err))
		return fmt.Errorf("mailer unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		c.log.Warn("mail delivery failed", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("mailer returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
