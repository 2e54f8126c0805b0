package agent

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/NethermindEth/basesociety/ai"
	"github.com/NethermindEth/basesociety/core"
	"github.com/NethermindEth/basesociety/metrics"
	"github.com/rs/zerolog"
)

var (
	// ErrInboxFull is returned by Submit when the actor cannot accept more work.
	ErrInboxFull = errors.New("agent inbox full")
	// ErrTerminated is returned once the actor has been stopped.
	ErrTerminated = errors.New("agent terminated")
)

// ActorConfig tunes a single agent actor.
type ActorConfig struct {
	ReflectionInterval time.Duration // 0 disables periodic reflection
	ContextWindow      int
	InboxSize          int
	// Nonce returns the score embedded in reflection prompts.
	Nonce func() int
	// OnMessage is called from the actor goroutine after every append.
	OnMessage func(agentID string, msg core.Message)
}

// DefaultActorConfig returns standard actor configuration
func DefaultActorConfig() ActorConfig {
	return ActorConfig{
		ReflectionInterval: 300 * time.Second,
		ContextWindow:      core.DefaultContextWindow,
		InboxSize:          100,
		Nonce:              func() int { return rand.Intn(core.MaxHappiness + 1) },
	}
}

// Command is anything an actor's inbox accepts.
type Command interface {
	command()
}

// AddMessage appends a message to the history.
type AddMessage struct {
	Message core.Message
}

// GetHistory asks for a copy of the history. Reply must be buffered.
type GetHistory struct {
	Reply chan []core.Message
}

// Reflect runs one self-reflection cycle. The reflection ticker injects it,
// and callers may submit it to force a cycle.
type Reflect struct{}

type interactResult struct {
	text string
	err  error
}

type interact struct {
	ctx    context.Context
	prompt string
	reply  chan interactResult
}

func (AddMessage) command() {}
func (GetHistory) command() {}
func (Reflect) command()    {}
func (interact) command()   {}

// Actor owns one agent's conversation history. A single goroutine drains the
// inbox and is the only writer of history.
type Actor struct {
	id       string
	profile  core.AgentProfile
	preamble string
	llm      ai.CompletionClient
	config   ActorConfig
	logger   zerolog.Logger

	inbox   chan Command
	history []core.Message

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewActor starts an actor for the agent. The caller owns its lifetime and
// must call Stop.
func NewActor(id string, profile core.AgentProfile, llm ai.CompletionClient, config ActorConfig, logger zerolog.Logger) *Actor {
	defaults := DefaultActorConfig()
	if config.ContextWindow <= 0 {
		config.ContextWindow = defaults.ContextWindow
	}
	if config.InboxSize <= 0 {
		config.InboxSize = defaults.InboxSize
	}
	if config.Nonce == nil {
		config.Nonce = defaults.Nonce
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Actor{
		id:       id,
		profile:  profile,
		preamble: ai.Preamble(profile),
		llm:      llm,
		config:   config,
		logger:   logger.With().Str("agent_id", id).Logger(),
		inbox:    make(chan Command, config.InboxSize),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go a.run()
	if config.ReflectionInterval > 0 {
		go a.reflectLoop(config.ReflectionInterval)
	}
	a.logger.Info().Dur("reflection_interval", config.ReflectionInterval).Msg("Started agent actor")
	return a
}

// ID returns the agent id.
func (a *Actor) ID() string { return a.id }

// Profile returns the immutable profile snapshot.
func (a *Actor) Profile() core.AgentProfile { return a.profile }

// Submit enqueues cmd without blocking.
func (a *Actor) Submit(cmd Command) error {
	if a.ctx.Err() != nil {
		return ErrTerminated
	}
	select {
	case a.inbox <- cmd:
		return nil
	case <-a.ctx.Done():
		return ErrTerminated
	default:
		metrics.InboxDropped.Inc()
		return ErrInboxFull
	}
}

// AddMessage enqueues msg for appending.
func (a *Actor) AddMessage(msg core.Message) error {
	return a.Submit(AddMessage{Message: msg})
}

// History returns a copy of the history as of when the request is processed.
func (a *Actor) History(ctx context.Context) ([]core.Message, error) {
	reply := make(chan []core.Message, 1)
	if err := a.enqueue(ctx, GetHistory{Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case history, ok := <-reply:
		if !ok {
			return nil, ErrTerminated
		}
		return history, nil
	case <-a.done:
		select {
		case history, ok := <-reply:
			if ok {
				return history, nil
			}
		default:
		}
		return nil, ErrTerminated
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Interact appends prompt as an owner message, asks the completion provider
// for a reply and appends it. On provider failure only the owner message is
// kept and the error wraps core.ErrProvider.
func (a *Actor) Interact(ctx context.Context, prompt string) (string, error) {
	reply := make(chan interactResult, 1)
	if err := a.enqueue(ctx, interact{ctx: ctx, prompt: prompt, reply: reply}); err != nil {
		return "", err
	}
	select {
	case res, ok := <-reply:
		if !ok {
			return "", ErrTerminated
		}
		return res.text, res.err
	case <-a.done:
		select {
		case res, ok := <-reply:
			if ok {
				return res.text, res.err
			}
		default:
		}
		return "", ErrTerminated
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Stop terminates the actor. Commands still queued are discarded and
// waiting callers get ErrTerminated.
func (a *Actor) Stop() {
	a.stopOnce.Do(func() {
		a.cancel()
		<-a.done
		a.logger.Info().Msg("Stopped agent actor")
	})
}

// Done is closed once the actor goroutine has exited.
func (a *Actor) Done() <-chan struct{} { return a.done }

// enqueue blocks until there is room in the inbox.
func (a *Actor) enqueue(ctx context.Context, cmd Command) error {
	if a.ctx.Err() != nil {
		return ErrTerminated
	}
	select {
	case a.inbox <- cmd:
		return nil
	case <-a.ctx.Done():
		return ErrTerminated
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Actor) run() {
	defer close(a.done)
	for {
		select {
		case <-a.ctx.Done():
			a.drain()
			return
		case cmd := <-a.inbox:
			a.handle(cmd)
		}
	}
}

// drain answers anything left in the inbox after Stop.
func (a *Actor) drain() {
	for {
		select {
		case cmd := <-a.inbox:
			switch c := cmd.(type) {
			case GetHistory:
				if c.Reply != nil {
					close(c.Reply)
				}
			case interact:
				close(c.reply)
			}
		default:
			return
		}
	}
}

func (a *Actor) handle(cmd Command) {
	switch c := cmd.(type) {
	case AddMessage:
		a.appendMessage(c.Message)
	case GetHistory:
		select {
		case c.Reply <- append([]core.Message(nil), a.history...):
		default:
			a.logger.Warn().Msg("History reply channel not ready, dropping snapshot")
		}
	case Reflect:
		a.reflect()
	case interact:
		text, err := a.interact(c.ctx, c.prompt)
		c.reply <- interactResult{text: text, err: err}
	default:
		a.logger.Warn().Str("command", fmt.Sprintf("%T", cmd)).Msg("Ignoring unknown command")
	}
}

func (a *Actor) appendMessage(msg core.Message) {
	a.history = append(a.history, msg)
	if a.config.OnMessage != nil {
		a.config.OnMessage(a.id, msg)
	}
}

func (a *Actor) interact(ctx context.Context, prompt string) (string, error) {
	// the window is taken before the prompt is appended so the in-flight
	// prompt is only sent once
	window := core.ContextWindow(a.history, a.config.ContextWindow)
	a.appendMessage(core.NewMessage(core.RoleUser, core.OriginOwner, prompt))

	a.logger.Debug().Int("history", len(window)).Int("prompt_len", len(prompt)).Msg("Calling completion for interaction")
	text, err := a.complete(ctx, "interact", window, prompt)
	if err != nil {
		a.logger.Error().Err(err).Msg("Interaction failed")
		if !errors.Is(err, core.ErrProvider) {
			err = fmt.Errorf("%w: %v", core.ErrProvider, err)
		}
		return "", err
	}

	a.appendMessage(core.NewMessage(core.RoleAssistant, core.OriginAgent, text))
	a.logger.Info().Int("response_len", len(text)).Msg("Interaction succeeded")
	return text, nil
}

func (a *Actor) reflect() {
	window := core.ContextWindow(a.history, a.config.ContextWindow)
	text, err := a.complete(a.ctx, "reflect", window, ai.ReflectionPrompt(a.config.Nonce()))
	if err != nil {
		a.logger.Warn().Err(err).Msg("Reflection failed")
		return
	}
	a.appendMessage(core.NewMessage(core.RoleAssistant, core.OriginAgent, text))
	a.logger.Info().Int("response_len", len(text)).Msg("Agent reflected")
}

func (a *Actor) complete(ctx context.Context, kind string, window []core.ChatTurn, prompt string) (string, error) {
	start := time.Now()
	text, err := a.llm.Complete(ctx, a.preamble, window, prompt)
	metrics.CompletionDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Completions.WithLabelValues(kind, "error").Inc()
		return "", err
	}
	metrics.Completions.WithLabelValues(kind, "ok").Inc()
	return text, nil
}

// reflectLoop injects Reflect into the inbox on every tick. A full inbox
// drops the tick.
func (a *Actor) reflectLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			if err := a.Submit(Reflect{}); errors.Is(err, ErrInboxFull) {
				a.logger.Warn().Msg("Inbox full, skipping reflection tick")
			}
		}
	}
}
