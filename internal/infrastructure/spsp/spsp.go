package spsp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/iho/ilpnode/internal/domain"
)

// Resolver derives SPSP receiver addresses and shared secrets. The shared
// secret is an HMAC over the destination address keyed by the node's server
// secret, so the receiving side can re-derive it statelessly.
type Resolver struct {
	nodeAddress  string
	serverSecret []byte
}

// NewResolver creates a Resolver.
func NewResolver(nodeAddress string, serverSecret []byte) *Resolver {
	return &Resolver{
		nodeAddress:  nodeAddress,
		serverSecret: serverSecret,
	}
}

// Response is the SPSP payment-setup payload.
type Response struct {
	DestinationAccount string `json:"destination_account"`
	SharedSecret       string `json:"shared_secret"`
}

// Resolve builds a fresh receiver address for the account. Each call embeds
// a random token segment so concurrent payments get distinct addresses.
func (r *Resolver) Resolve(account *domain.Account) (*Response, error) {
	base := account.ILPAddress
	if base == "" {
		base = r.nodeAddress + "." + account.Username
	}

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate spsp token: %w", err)
	}
	destination := base + "." + base64.RawURLEncoding.EncodeToString(nonce)

	mac := hmac.New(sha256.New, r.serverSecret)
	mac.Write([]byte(destination))

	return &Response{
		DestinationAccount: destination,
		SharedSecret:       base64.StdEncoding.EncodeToString(mac.Sum(nil)),
	}, nil
}
