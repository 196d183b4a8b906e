package relay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/iho/ilpnode/internal/domain"
	"github.com/iho/ilpnode/internal/usecase"
)

// Client implements usecase.OutgoingService over the counterparty's HTTP
// endpoint. It presents the account's outgoing token and carries the packet
// payload opaquely.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a relay Client.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type packetRequest struct {
	Destination string    `json:"destination"`
	Amount      uint64    `json:"amount"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	Data        string    `json:"data,omitempty"`
}

type packetResponse struct {
	Fulfilled bool   `json:"fulfilled"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	Data      string `json:"data,omitempty"`
}

// SendPacket relays the prepared packet to the next hop. Transport failures
// and non-2xx responses surface as errors; the caller refunds the reserve
// and rejects upstream.
func (c *Client) SendPacket(ctx context.Context, to *domain.Account, req usecase.ForwardRequest) (usecase.ForwardResult, error) {
	if to.HTTPEndpoint == "" {
		return usecase.ForwardResult{}, fmt.Errorf("account %s has no outgoing http endpoint", to.ID)
	}

	body, err := json.Marshal(packetRequest{
		Destination: req.DestinationAddress,
		Amount:      req.Amount,
		ExpiresAt:   req.ExpiresAt,
		Data:        base64.StdEncoding.EncodeToString(req.Data),
	})
	if err != nil {
		return usecase.ForwardResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, to.HTTPEndpoint, bytes.NewReader(body))
	if err != nil {
		return usecase.ForwardResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if to.HTTPOutgoingToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+to.HTTPOutgoingToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("next hop request failed",
			slog.String("account_id", to.ID),
			slog.String("endpoint", to.HTTPEndpoint),
			slog.String("error", err.Error()))
		return usecase.ForwardResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return usecase.ForwardResult{}, fmt.Errorf("next hop returned %d", resp.StatusCode)
	}

	var out packetResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return usecase.ForwardResult{}, fmt.Errorf("decode next hop response: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(out.Data)
	if err != nil {
		return usecase.ForwardResult{}, fmt.Errorf("decode next hop payload: %w", err)
	}

	return usecase.ForwardResult{
		Fulfilled: out.Fulfilled,
		Code:      out.Code,
		Message:   out.Message,
		Data:      data,
	}, nil
}
