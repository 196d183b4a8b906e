package btp

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/iho/ilpnode/internal/adapter/http/middleware"
	"github.com/iho/ilpnode/internal/domain"
	"github.com/iho/ilpnode/internal/usecase"
)

// AccountLookup resolves the counterparty account a connection claims to be.
type AccountLookup interface {
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
}

// Server is the bilateral websocket packet ingress. One connection carries
// many packets; each frame is answered on the same socket with a matching
// request ID. Payloads stay opaque end to end.
type Server struct {
	accounts AccountLookup
	incoming usecase.IncomingService
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	writeTimeout time.Duration
}

// NewServer creates a BTP Server.
func NewServer(accounts AccountLookup, incoming usecase.IncomingService, logger zerolog.Logger) *Server {
	return &Server{
		accounts: accounts,
		incoming: incoming,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger:       logger,
		writeTimeout: 10 * time.Second,
	}
}

// packetFrame is one inbound packet on the socket.
type packetFrame struct {
	ID          uint64    `json:"id"`
	Destination string    `json:"destination"`
	Amount      uint64    `json:"amount"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	Data        string    `json:"data,omitempty"`
}

// resultFrame answers a packetFrame by ID.
type resultFrame struct {
	ID        uint64 `json:"id"`
	Fulfilled bool   `json:"fulfilled"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	Data      string `json:"data,omitempty"`
}

// Handle upgrades the connection after authenticating the counterparty with
// its btp_incoming_token, then serves packets until the peer disconnects.
func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	username := domain.NormalizeUsername(chi.URLParam(r, "username"))
	account, err := s.accounts.GetAccountByUsername(r.Context(), username)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	token, ok := middleware.BearerToken(r)
	if !ok {
		// Browsers cannot set Authorization on websocket upgrades.
		token = r.URL.Query().Get("token")
	}
	if token == "" || account.BTPIncomingToken == "" || !middleware.TokenEqual(token, account.BTPIncomingToken) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("btp upgrade failed")
		return
	}
	defer conn.Close()

	s.logger.Info().Str("username", username).Msg("btp connection established")
	s.serve(r.Context(), conn, account)
	s.logger.Info().Str("username", username).Msg("btp connection closed")
}

func (s *Server) serve(ctx context.Context, conn *websocket.Conn, account *domain.Account) {
	for {
		var frame packetFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn().Err(err).Str("account_id", account.ID).Msg("btp read failed")
			}
			return
		}

		data, err := base64.StdEncoding.DecodeString(frame.Data)
		if err != nil {
			s.write(conn, resultFrame{ID: frame.ID, Code: "F01", Message: "invalid packet data"})
			continue
		}

		result, err := s.incoming.HandlePacket(ctx, account, usecase.ForwardRequest{
			DestinationAddress: frame.Destination,
			Amount:             frame.Amount,
			ExpiresAt:          frame.ExpiresAt,
			Data:               data,
		})
		if err != nil {
			s.logger.Error().Err(err).Str("account_id", account.ID).Msg("btp packet failed")
			s.write(conn, resultFrame{ID: frame.ID, Code: "T00", Message: "internal error"})
			continue
		}

		s.write(conn, resultFrame{
			ID:        frame.ID,
			Fulfilled: result.Fulfilled,
			Code:      result.Code,
			Message:   result.Message,
			Data:      base64.StdEncoding.EncodeToString(result.Data),
		})
	}
}

func (s *Server) write(conn *websocket.Conn, frame resultFrame) {
	conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := conn.WriteJSON(frame); err != nil {
		s.logger.Warn().Err(err).Msg("btp write failed")
	}
}
