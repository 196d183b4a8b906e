package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/iho/ilpnode/internal/domain"
)

// EngineClient implements usecase.SettlementEngineClient over HTTP.
// Transient failures are retried with exponential backoff up to maxAttempts;
// after exhaustion the call fails with domain.ErrEngineUnreachable and the
// caller decides what to alert.
type EngineClient struct {
	httpClient  *http.Client
	maxAttempts int
	logger      *slog.Logger
}

// NewEngineClient creates an EngineClient.
func NewEngineClient(timeout time.Duration, maxAttempts int, logger *slog.Logger) *EngineClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &EngineClient{
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

type settlementRequest struct {
	Amount string `json:"amount"`
	Scale  uint8  `json:"scale"`
}

// SendSettlement POSTs the settlement request to the account's engine. The
// idempotency key rides in the Idempotency-Key header so the engine can
// dedupe retried deliveries; a retried call never carries a different
// amount than originally computed.
func (c *EngineClient) SendSettlement(ctx context.Context, engineURL, accountID string, amount uint64, scale uint8, idempotencyKey string) error {
	body, err := json.Marshal(settlementRequest{
		Amount: strconv.FormatUint(amount, 10),
		Scale:  scale,
	})
	if err != nil {
		return err
	}
	url := strings.TrimSuffix(engineURL, "/") + "/accounts/" + accountID + "/settlements"

	attempt := 0
	operation := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", idempotencyKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("settlement engine request failed",
				slog.String("engine_url", engineURL),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("engine returned %d", resp.StatusCode)
		default:
			// 4xx other than 429 will not improve with retries.
			return backoff.Permanent(fmt.Errorf("engine rejected settlement: %d", resp.StatusCode))
		}
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxAttempts-1)), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEngineUnreachable, err)
	}
	return nil
}
