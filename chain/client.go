// Package chain talks to the AgentNFT and DecayOracle contracts.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AgentProfile mirrors the AgentNFT profile tuple.
type AgentProfile struct {
	Personality          string
	Desires              string
	Skills               []string
	ActivityLogHash      [32]byte
	LastPassionTimestamp *big.Int
	HappinessScore       uint8
}

// Receipt is the part of a mined transaction callers care about.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
}

// Client is the oracle's view of the chain. Transacting methods return once
// the transaction is mined; a reverted transaction is reported as
// core.ErrChain.
type Client interface {
	IsRegistered(ctx context.Context, tokenID *big.Int) (bool, error)
	Register(ctx context.Context, tokenID *big.Int) (Receipt, error)
	UpdateHappiness(ctx context.Context, tokenID *big.Int, score uint8) (Receipt, error)
	GetProfile(ctx context.Context, tokenID *big.Int) (AgentProfile, error)
}
