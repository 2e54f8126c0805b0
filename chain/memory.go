package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/NethermindEth/basesociety/core"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// MemoryClient is an in-process Client used for tests and dry runs. Tokens
// must be minted before they can be registered.
type MemoryClient struct {
	mu         sync.Mutex
	profiles   map[string]AgentProfile
	registered map[string]bool
	block      uint64

	// FailNext makes the next call of the named method fail with
	// core.ErrChain.
	FailNext map[string]int

	Registrations []string
	Updates       []ScoreUpdate
}

// ScoreUpdate records one UpdateHappiness call.
type ScoreUpdate struct {
	TokenID string
	Score   uint8
}

var _ Client = (*MemoryClient)(nil)

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		profiles:   make(map[string]AgentProfile),
		registered: make(map[string]bool),
		FailNext:   make(map[string]int),
	}
}

// Mint creates a token with the given score and last passion timestamp.
func (m *MemoryClient) Mint(tokenID *big.Int, score uint8, lastPassion int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[tokenID.String()] = AgentProfile{
		LastPassionTimestamp: big.NewInt(lastPassion),
		HappinessScore:       score,
	}
}

// MarkRegistered registers tokenID without recording a transaction.
func (m *MemoryClient) MarkRegistered(tokenID *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered[tokenID.String()] = true
}

// Score returns the current happiness score of tokenID.
func (m *MemoryClient) Score(tokenID *big.Int) (uint8, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[tokenID.String()]
	return p.HappinessScore, ok
}

func (m *MemoryClient) IsRegistered(ctx context.Context, tokenID *big.Int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "IsRegistered"); err != nil {
		return false, err
	}
	return m.registered[tokenID.String()], nil
}

func (m *MemoryClient) Register(ctx context.Context, tokenID *big.Int) (Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "Register"); err != nil {
		return Receipt{}, err
	}
	key := tokenID.String()
	if _, ok := m.profiles[key]; !ok {
		return Receipt{}, fmt.Errorf("%w: token %s does not exist", core.ErrChain, key)
	}
	if m.registered[key] {
		return Receipt{}, fmt.Errorf("%w: token %s already registered", core.ErrChain, key)
	}
	m.registered[key] = true
	m.Registrations = append(m.Registrations, key)
	return m.receipt("registerAgent", key), nil
}

func (m *MemoryClient) UpdateHappiness(ctx context.Context, tokenID *big.Int, score uint8) (Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "UpdateHappiness"); err != nil {
		return Receipt{}, err
	}
	key := tokenID.String()
	p, ok := m.profiles[key]
	if !ok || !m.registered[key] {
		return Receipt{}, fmt.Errorf("%w: token %s not registered", core.ErrChain, key)
	}
	p.HappinessScore = score
	m.profiles[key] = p
	m.Updates = append(m.Updates, ScoreUpdate{TokenID: key, Score: score})
	return m.receipt("updateAgentHappiness", key), nil
}

func (m *MemoryClient) GetProfile(ctx context.Context, tokenID *big.Int) (AgentProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "GetProfile"); err != nil {
		return AgentProfile{}, err
	}
	p, ok := m.profiles[tokenID.String()]
	if !ok {
		return AgentProfile{}, fmt.Errorf("%w: token %s does not exist", core.ErrChain, tokenID)
	}
	p.LastPassionTimestamp = new(big.Int).Set(p.LastPassionTimestamp)
	return p, nil
}

func (m *MemoryClient) check(ctx context.Context, method string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailNext[method] > 0 {
		m.FailNext[method]--
		return fmt.Errorf("%w: %s failed", core.ErrChain, method)
	}
	return nil
}

func (m *MemoryClient) receipt(method, key string) Receipt {
	m.block++
	return Receipt{
		TxHash:      common.BytesToHash(crypto.Keccak256([]byte(fmt.Sprintf("%s:%s:%d", method, key, m.block)))),
		BlockNumber: m.block,
	}
}
