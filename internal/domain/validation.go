package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation constants
const (
	MinUsernameLength  = 3
	MaxUsernameLength  = 32
	MaxAssetCodeLength = 12
	MaxTokenLength     = 256
	MaxAddressSegments = 64
	MaxAddressLength   = 1023
	DefaultPageSize    = 50
	MaxPageSize        = 1000
)

var (
	usernameRegex  = regexp.MustCompile(`^[a-z0-9_-]+$`)
	assetCodeRegex = regexp.MustCompile(`^[A-Z0-9]+$`)
	// ILP address segments: letters, digits and a small punctuation set,
	// joined by dots. See RFC 15 (ILP Addresses).
	segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_~-]+$`)
)

// NormalizeUsername lowercases and trims a username before storage or lookup.
func NormalizeUsername(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidateUsername validates a normalized username.
func ValidateUsername(name string) error {
	if len(name) < MinUsernameLength || len(name) > MaxUsernameLength {
		return fmt.Errorf("%w: username must be %d-%d characters", ErrInvalidField, MinUsernameLength, MaxUsernameLength)
	}
	if !usernameRegex.MatchString(name) {
		return fmt.Errorf("%w: username may contain only a-z, 0-9, '_' and '-'", ErrInvalidField)
	}
	return nil
}

// ValidateAssetCode validates an asset code symbol.
func ValidateAssetCode(code string) error {
	if code == "" {
		return fmt.Errorf("%w: asset_code is required", ErrInvalidField)
	}
	if len(code) > MaxAssetCodeLength {
		return fmt.Errorf("%w: asset_code exceeds %d characters", ErrInvalidField, MaxAssetCodeLength)
	}
	if !assetCodeRegex.MatchString(code) {
		return fmt.Errorf("%w: asset_code must be uppercase alphanumeric", ErrInvalidField)
	}
	return nil
}

// ValidateILPAddress validates a dot-segmented ILP address.
func ValidateILPAddress(addr string) error {
	if addr == "" || len(addr) > MaxAddressLength {
		return fmt.Errorf("%w: ilp address length", ErrInvalidField)
	}
	segments := strings.Split(addr, ".")
	if len(segments) > MaxAddressSegments {
		return fmt.Errorf("%w: too many address segments", ErrInvalidField)
	}
	for _, seg := range segments {
		if !segmentRegex.MatchString(seg) {
			return fmt.Errorf("%w: bad address segment %q", ErrInvalidField, seg)
		}
	}
	return nil
}

// ValidateRoutePrefix validates an address prefix used as a routing key.
// A prefix has the same shape as an address.
func ValidateRoutePrefix(prefix string) error {
	if err := ValidateILPAddress(prefix); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	return nil
}

// Validate checks an administrative insert/update payload before any store
// mutation happens.
func (d *AccountDetails) Validate() error {
	if err := ValidateUsername(NormalizeUsername(d.Username)); err != nil {
		return err
	}
	if err := ValidateAssetCode(d.AssetCode); err != nil {
		return err
	}
	if d.ILPAddress != "" {
		if err := ValidateILPAddress(d.ILPAddress); err != nil {
			return err
		}
	}
	if d.RoutingRelation != "" && !d.RoutingRelation.Valid() {
		return fmt.Errorf("%w: unknown routing_relation %q", ErrInvalidField, d.RoutingRelation)
	}
	for _, tok := range []string{d.HTTPIncomingToken, d.HTTPOutgoingToken, d.BTPIncomingToken, d.BTPOutgoingToken} {
		if len(tok) > MaxTokenLength {
			return fmt.Errorf("%w: token exceeds %d characters", ErrInvalidField, MaxTokenLength)
		}
	}
	return nil
}

// ValidatePagination clamps list parameters to a bounded page.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
