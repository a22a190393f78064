package paymentrecord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Dan9191/asset-service/internal/config"
	"github.com/Dan9191/asset-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Client queries the payment record service
type Client struct {
	baseURL string
	client  *http.Client
	log     *logrus.Logger
}

// NewClient initializes a new payment record client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.PaymentRecordURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// buildURL creates the monthly query URL, narrowed to one asset when given
func (c *Client) buildURL(year, month int, assetName string) string {
	u := fmt.Sprintf("%s/api/v1/paymentRecord/%d/%d", c.baseURL, year, month)
	if assetName != "" {
		u += "?" + url.Values{"assetName": {assetName}}.Encode()
	}
	return u
}

// QueryPaymentRecords retrieves the payments of a month
func (c *Client) QueryPaymentRecords(ctx context.Context, year, month int, assetName string) ([]models.PaymentRecord, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month: %d", month)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(year, month, assetName), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debugf("Payment record response: %s", string(body))

	var out models.PaymentRecordResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	c.log.Infof("Retrieved %d payment records for %04d-%02d", len(out.QueryPaymentRecord), year, month)
	return out.QueryPaymentRecord, nil
}
