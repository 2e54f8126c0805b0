package oracle

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/NethermindEth/basesociety/core"
	"github.com/ethereum/go-ethereum/crypto"
)

// Fallback decides what happens to an agent whose token id and agent id are
// both non-numeric.
type Fallback string

const (
	// FallbackSkip reports a parse error and leaves the agent alone.
	FallbackSkip Fallback = "skip"
	// FallbackDerive maps the agent id to keccak256(agent_id).
	FallbackDerive Fallback = "derive"
)

// ParseFallback accepts "skip", "derive" or the empty string (skip).
func ParseFallback(s string) (Fallback, error) {
	switch Fallback(strings.ToLower(strings.TrimSpace(s))) {
	case "", FallbackSkip:
		return FallbackSkip, nil
	case FallbackDerive:
		return FallbackDerive, nil
	}
	return "", fmt.Errorf("%w: unknown token fallback %q", core.ErrParse, s)
}

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// TokenResolver maps a stored agent record to its on-chain token id.
type TokenResolver struct {
	Fallback Fallback
}

// Resolve tries the record's token id, then its agent id, then the fallback.
func (r TokenResolver) Resolve(record core.AgentRecord) (*big.Int, error) {
	if id, ok := parseUint256(record.TokenID); ok {
		return id, nil
	}
	if id, ok := parseUint256(record.AgentID); ok {
		return id, nil
	}
	if r.Fallback == FallbackDerive {
		return DeriveTokenID(record.AgentID), nil
	}
	return nil, fmt.Errorf("%w: agent %q has no numeric token id", core.ErrParse, record.AgentID)
}

// DeriveTokenID hashes agentID into the uint256 space.
func DeriveTokenID(agentID string) *big.Int {
	return new(big.Int).SetBytes(crypto.Keccak256([]byte(agentID)))
}

// parseUint256 accepts base-10 or 0x-prefixed hex.
func parseUint256(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	base := 10
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		s, base = rest, 16
		if s == "" {
			return nil, false
		}
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return nil, false
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok || n.Cmp(maxUint256) > 0 {
		return nil, false
	}
	return n, true
}
