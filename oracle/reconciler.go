// Package oracle keeps on-chain happiness scores in line with off-chain
// interaction recency.
package oracle

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/NethermindEth/basesociety/chain"
	"github.com/NethermindEth/basesociety/communication"
	"github.com/NethermindEth/basesociety/core"
	"github.com/NethermindEth/basesociety/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// AgentLister is the slice of the agent store the reconciler reads.
type AgentLister interface {
	ListAgents(ctx context.Context) ([]core.AgentRecord, error)
}

type Config struct {
	Interval time.Duration
	Policy   core.DecayPolicy
	Fallback Fallback

	// Per-agent retry delay after a failed chain call.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:       60 * time.Second,
		Policy:         core.DefaultDecayPolicy(),
		Fallback:       FallbackSkip,
		InitialBackoff: 30 * time.Second,
		MaxBackoff:     30 * time.Minute,
	}
}

// TickReport counts what one reconciliation pass did.
type TickReport struct {
	Checked    int `json:"checked"`
	Registered int `json:"registered"`
	Decayed    int `json:"decayed"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// DecayPayload is published with EventHappinessDecayed.
type DecayPayload struct {
	TokenID string `json:"token_id"`
	From    uint8  `json:"from"`
	To      uint8  `json:"to"`
	TxHash  string `json:"tx_hash"`
}

type retryState struct {
	policy *backoff.ExponentialBackOff
	next   time.Time
}

// Reconciler walks every stored agent on a fixed cadence, registers unknown
// tokens with the decay oracle and lowers scores of inactive agents.
type Reconciler struct {
	store    AgentLister
	chain    chain.Client
	resolver TokenResolver
	config   Config
	events   communication.Publisher
	logger   zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	retries map[string]*retryState
}

type Option func(*Reconciler)

func WithEvents(p communication.Publisher) Option {
	return func(r *Reconciler) { r.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func NewReconciler(store AgentLister, client chain.Client, config Config, logger zerolog.Logger, opts ...Option) *Reconciler {
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = DefaultConfig().InitialBackoff
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}
	r := &Reconciler{
		store:    store,
		chain:    client,
		resolver: TokenResolver{Fallback: config.Fallback},
		config:   config,
		events:   communication.NopPublisher{},
		logger:   logger.With().Str("component", "oracle").Logger(),
		now:      time.Now,
		retries:  make(map[string]*retryState),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run ticks immediately and then every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context) error {
	r.logger.Info().
		Dur("interval", r.config.Interval).
		Dur("threshold", r.config.Policy.Threshold).
		Float64("rate_per_hour", r.config.Policy.RatePerHour).
		Str("fallback", string(r.config.Fallback)).
		Msg("Starting decay loop")

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		if _, err := r.Tick(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn().Err(err).Msg("Reconciliation tick skipped")
		}
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Decay loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick runs one reconciliation pass. An error is returned only when the
// store could not be read; per-agent failures are counted in the report.
func (r *Reconciler) Tick(ctx context.Context) (TickReport, error) {
	var report TickReport
	metrics.ReconcileTicks.Inc()

	records, err := r.store.ListAgents(ctx)
	if err != nil {
		return report, err
	}

	now := r.now()
	for _, record := range records {
		if ctx.Err() != nil {
			break
		}
		report.Checked++
		log := r.logger.With().Str("agent_id", record.AgentID).Logger()

		tokenID, err := r.resolver.Resolve(record)
		if err != nil {
			log.Warn().Err(err).Msg("Skipping agent without token id")
			r.count(&report.Skipped, "skipped")
			continue
		}

		if wait := r.backoffRemaining(record.AgentID, now); wait > 0 {
			log.Debug().Dur("retry_in", wait).Msg("Agent in backoff")
			r.count(&report.Skipped, "backoff")
			continue
		}

		if err := r.reconcile(ctx, record, tokenID, now, &report); err != nil {
			delay := r.recordFailure(record.AgentID, now)
			log.Warn().Err(err).Str("token_id", tokenID.String()).Dur("retry_in", delay).Msg("Reconciliation failed")
			r.count(&report.Failed, "failed")
			continue
		}
		r.recordSuccess(record.AgentID)
	}

	r.logger.Info().
		Int("checked", report.Checked).
		Int("registered", report.Registered).
		Int("decayed", report.Decayed).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("Reconciliation tick complete")
	return report, nil
}

func (r *Reconciler) reconcile(ctx context.Context, record core.AgentRecord, tokenID *big.Int, now time.Time, report *TickReport) error {
	log := r.logger.With().Str("agent_id", record.AgentID).Str("token_id", tokenID.String()).Logger()

	registered, err := r.chain.IsRegistered(ctx, tokenID)
	if err != nil {
		return err
	}
	if !registered {
		receipt, err := r.chain.Register(ctx, tokenID)
		if err != nil {
			return err
		}
		log.Info().Str("tx", receipt.TxHash.Hex()).Msg("Registered agent with decay oracle")
		r.count(&report.Registered, "registered")
		r.events.Publish(communication.NewEvent(communication.EventAgentRegistered, record.AgentID, map[string]string{
			"token_id": tokenID.String(),
			"tx_hash":  receipt.TxHash.Hex(),
		}))
	}

	var lastTS int64
	if record.LastInteractionTS != nil {
		lastTS = *record.LastInteractionTS
	}
	elapsed := time.Duration(now.Unix()-lastTS) * time.Second
	if elapsed <= r.config.Policy.Threshold {
		return nil
	}

	profile, err := r.chain.GetProfile(ctx, tokenID)
	if err != nil {
		return err
	}
	current := profile.HappinessScore
	next, changed := core.Decay(now.Unix(), lastTS, current, r.config.Policy)
	if !changed || next >= current {
		return nil
	}

	receipt, err := r.chain.UpdateHappiness(ctx, tokenID, next)
	if err != nil {
		return err
	}
	log.Info().
		Uint8("from", current).
		Uint8("to", next).
		Dur("inactive", elapsed).
		Str("tx", receipt.TxHash.Hex()).
		Msg("Decayed happiness")
	r.count(&report.Decayed, "decayed")
	r.events.Publish(communication.NewEvent(communication.EventHappinessDecayed, record.AgentID, DecayPayload{
		TokenID: tokenID.String(),
		From:    current,
		To:      next,
		TxHash:  receipt.TxHash.Hex(),
	}))
	return nil
}

func (r *Reconciler) count(field *int, action string) {
	*field++
	metrics.ReconcileActions.WithLabelValues(action).Inc()
}

func (r *Reconciler) backoffRemaining(agentID string, now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.retries[agentID]
	if !ok || !state.next.After(now) {
		return 0
	}
	return state.next.Sub(now)
}

func (r *Reconciler) recordFailure(agentID string, now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.retries[agentID]
	if !ok {
		policy := backoff.NewExponentialBackOff()
		policy.InitialInterval = r.config.InitialBackoff
		policy.MaxInterval = r.config.MaxBackoff
		policy.MaxElapsedTime = 0
		policy.Reset()
		state = &retryState{policy: policy}
		r.retries[agentID] = state
	}
	delay := state.policy.NextBackOff()
	if delay == backoff.Stop {
		delay = r.config.MaxBackoff
	}
	state.next = now.Add(delay)
	return delay
}

func (r *Reconciler) recordSuccess(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.retries, agentID)
}
