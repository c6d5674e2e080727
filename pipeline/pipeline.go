// Package pipeline implements the orchestrator that carries one learner
// request through classification, guardrail policy, provider invocation,
// sanitization, and persistence.
//
// The orchestrator initializes from configuration via New, creating all
// subsystems internally. Functional options allow test overrides of any
// subsystem.
//
//	orch, err := pipeline.New(&cfg)
//	result, err := orch.Submit(ctx, "", "Explain recursion")
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/socratic-labs/tutor/classify"
	"github.com/socratic-labs/tutor/core/protocol"
	"github.com/socratic-labs/tutor/observability"
	"github.com/socratic-labs/tutor/policy"
	"github.com/socratic-labs/tutor/provider"
	"github.com/socratic-labs/tutor/sanitize"
	"github.com/socratic-labs/tutor/store"
)

// blockedResponseText stands in for an assistant response withheld by a
// post-invocation guardrail. Raw model output is never shown or persisted
// once blocked.
const blockedResponseText = "Response withheld - it conflicted with tutoring guardrails."

// Option configures an Orchestrator after config-driven initialization.
// Applied by New after cold start; overrides replace config-created defaults.
type Option func(*Orchestrator)

// WithClassifier overrides the config-created classifier.
func WithClassifier(c *classify.Classifier) Option {
	return func(o *Orchestrator) { o.classifier = c }
}

// WithPolicyEngine overrides the config-created guardrail engine.
func WithPolicyEngine(e *policy.Engine) Option {
	return func(o *Orchestrator) { o.engine = e }
}

// WithProvider overrides the config-created provider.
func WithProvider(p provider.Provider) Option {
	return func(o *Orchestrator) { o.provider = p }
}

// WithStore overrides the config-created conversation store.
func WithStore(s store.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithObserver overrides the default observer for pipeline events.
func WithObserver(obs observability.Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithProviderRegistry overrides the config-created provider registry.
func WithProviderRegistry(r *provider.Registry) Option {
	return func(o *Orchestrator) { o.registry = r }
}

// Orchestrator is the single entry point for tutoring requests. One Submit
// call occupies one traversal of the state machine; concurrent Submits are
// safe and the store serializes appends per session.
type Orchestrator struct {
	classifier *classify.Classifier
	engine     *policy.Engine

	// provMu guards provider: UseProvider may swap the active backend while
	// Submits are in flight.
	provMu   sync.RWMutex
	provider provider.Provider

	registry      *provider.Registry
	store         store.Store
	observer      observability.Observer
	systemPrompt  string
	historyWindow int
}

// New creates an Orchestrator from configuration. Subsystems (classifier,
// policy engine, provider, store) are initialized from their respective
// config sections. Functional options applied after initialization can
// override any subsystem for testing.
func New(cfg *Config, opts ...Option) (*Orchestrator, error) {
	classifier, err := classify.NewFromConfig(&cfg.Classifier)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	observer := observability.Observer(observability.NewSlogObserver(slog.Default()))
	if cfg.Observer != "" {
		observer, err = observability.GetObserver(cfg.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
	}

	pack := policy.DefaultPack()
	if cfg.PolicyPack != "" {
		pack, err = policy.Load(cfg.PolicyPack)
		if err != nil {
			return nil, fmt.Errorf("failed to load policy pack: %w", err)
		}
	}

	prov, err := provider.New(&cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	st, err := store.NewStore(&cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	registry := provider.NewRegistry()
	for name, provCfg := range cfg.Providers {
		if err := registry.Register(name, provCfg); err != nil {
			return nil, fmt.Errorf("failed to register provider %q: %w", name, err)
		}
	}

	o := &Orchestrator{
		classifier:    classifier,
		provider:      prov,
		registry:      registry,
		store:         st,
		observer:      observer,
		systemPrompt:  cfg.SystemPrompt,
		historyWindow: cfg.HistoryWindow,
	}

	for _, opt := range opts {
		opt(o)
	}

	// The default engine is built after options so an overriding observer
	// also receives policy events.
	if o.engine == nil {
		o.engine = policy.NewEngine(pack, o.observer)
	}

	return o, nil
}

// Store returns the orchestrator's conversation store.
func (o *Orchestrator) Store() store.Store {
	return o.store
}

// Providers returns the registry of named backend configurations.
func (o *Orchestrator) Providers() *provider.Registry {
	return o.registry
}

// UseProvider switches the active backend to a registered named provider.
// Safe to call while Submits are in flight; a traversal already past the
// provider lookup finishes on the backend it started with.
func (o *Orchestrator) UseProvider(name string) error {
	p, err := o.registry.Get(name)
	if err != nil {
		return err
	}
	o.provMu.Lock()
	o.provider = p
	o.provMu.Unlock()
	return nil
}

func (o *Orchestrator) activeProvider() provider.Provider {
	o.provMu.RLock()
	defer o.provMu.RUnlock()
	return o.provider
}

// Close releases subsystem resources.
func (o *Orchestrator) Close() error {
	return o.store.Close()
}

// Submit carries one learner request through the pipeline and returns the
// traversal's Result. An empty sessionID starts a new session; the assigned
// ID comes back in the Result.
//
// Operational failures such as provider errors and persistence faults are
// reported inside the Result (ErrorKind, WasBlocked), not as a Go error.
// Submit returns a non-nil error only when no traversal could happen at all,
// such as a session that cannot be created.
func (o *Orchestrator) Submit(ctx context.Context, sessionID, userText string) (*Result, error) {
	if sessionID == "" {
		sess, err := o.store.NewSession(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		sessionID = sess.ID
	}

	result := &Result{SessionID: sessionID}
	result.advance(StateReceived)
	observability.Emit(ctx, o.observer, EventReceived, observability.LevelVerbose,
		"pipeline.Submit", map[string]any{
			"session_id":  sessionID,
			"text_length": len(userText),
		})

	// Audit appends must survive a cancelled request: a turn that reached
	// the pipeline is recorded even when the caller has already gone away.
	persistCtx := context.WithoutCancel(ctx)

	intent, ruleID := o.classifier.Explain(userText)
	result.advance(StateClassified)
	result.Intent = intent
	observability.Emit(ctx, o.observer, EventClassified, observability.LevelInfo,
		"pipeline.Submit", map[string]any{
			"session_id": sessionID,
			"intent":     string(intent),
			"rule_id":    ruleID,
		})

	userTurn := protocol.NewTurn(sessionID, protocol.RoleUser, userText)
	userTurn.Intent = intent

	preDecision := o.engine.Evaluate(ctx, policy.Input{
		Stage:     policy.StagePre,
		Text:      userText,
		Intent:    intent,
		SessionID: sessionID,
	})
	result.advance(StatePrePolicyChecked)
	userTurn.Policy = preDecision

	promptText := userText
	switch preDecision.Verdict {
	case protocol.VerdictBlock:
		result.advance(StateBlocked)
		result.WasBlocked = true
		result.Decision = preDecision
		result.FinalText = preDecision.Reason
		observability.Emit(ctx, o.observer, EventPolicyBlock, observability.LevelWarning,
			"pipeline.Submit", map[string]any{
				"session_id": sessionID,
				"stage":      string(policy.StagePre),
				"rule_id":    preDecision.RuleID,
			})

		if err := o.store.Append(persistCtx, sessionID, userTurn); err != nil {
			o.reportPersistFailure(ctx, result, err)
		}
		return result, nil

	case protocol.VerdictRewrite:
		promptText = preDecision.Replacement
		result.WasRewritten = true
		result.Decision = preDecision
		userTurn.SanitizedText = promptText
		userTurn.WasModified = true
		observability.Emit(ctx, o.observer, EventPolicyRewrite, observability.LevelInfo,
			"pipeline.Submit", map[string]any{
				"session_id": sessionID,
				"stage":      string(policy.StagePre),
				"rule_id":    preDecision.RuleID,
			})
	}

	history := o.loadHistory(ctx, sessionID)

	prov := o.activeProvider()
	resp := prov.Invoke(ctx, provider.Request{
		SystemPrompt: o.systemPrompt,
		UserPrompt:   promptText,
		Intent:       intent,
		History:      history,
	})
	result.advance(StateProviderInvoked)
	result.Latency = resp.Latency

	if resp.Failed() {
		result.advance(StateFailed)
		result.ErrorKind = errorKindFor(resp.Err.Kind)
		observability.Emit(ctx, o.observer, EventProviderFailed, observability.LevelWarning,
			"pipeline.Submit", map[string]any{
				"session_id": sessionID,
				"provider":   prov.Name(),
				"kind":       string(resp.Err.Kind),
				"message":    resp.Err.Message,
			})

		// The user turn is still recorded for audit; only the assistant
		// turn is missing from the exchange.
		if err := o.store.Append(persistCtx, sessionID, userTurn); err != nil {
			o.reportPersistFailure(ctx, result, err)
			// The provider failure stays the caller-facing kind.
			result.ErrorKind = errorKindFor(resp.Err.Kind)
		}
		return result, nil
	}

	observability.Emit(ctx, o.observer, EventProviderComplete, observability.LevelInfo,
		"pipeline.Submit", map[string]any{
			"session_id": sessionID,
			"provider":   prov.Name(),
			"latency_ms": resp.Latency.Milliseconds(),
		})

	sanitized := sanitize.Sanitize(resp.Text)
	result.advance(StateSanitized)
	result.WasSanitized = sanitized.WasModified
	observability.Emit(ctx, o.observer, EventSanitized, observability.LevelVerbose,
		"pipeline.Submit", map[string]any{
			"session_id":    sessionID,
			"modified":      sanitized.WasModified,
			"removed_spans": len(sanitized.RemovedSpans),
		})

	postDecision := o.engine.Evaluate(ctx, policy.Input{
		Stage:     policy.StagePost,
		Text:      sanitized.CleanedText,
		Intent:    intent,
		SessionID: sessionID,
	})
	result.advance(StatePostPolicyChecked)

	finalText := sanitized.CleanedText
	assistantTurn := protocol.NewTurn(sessionID, protocol.RoleAssistant, resp.Text)
	assistantTurn.Intent = intent
	assistantTurn.Policy = postDecision
	assistantTurn.WasModified = sanitized.WasModified

	switch postDecision.Verdict {
	case protocol.VerdictBlock:
		result.advance(StateBlocked)
		result.WasBlocked = true
		result.Decision = postDecision
		finalText = blockedResponseText
		assistantTurn.RawText = blockedResponseText
		assistantTurn.WasModified = true
		observability.Emit(ctx, o.observer, EventPolicyBlock, observability.LevelWarning,
			"pipeline.Submit", map[string]any{
				"session_id": sessionID,
				"stage":      string(policy.StagePost),
				"rule_id":    postDecision.RuleID,
			})

	case protocol.VerdictRewrite:
		result.WasRewritten = true
		result.Decision = postDecision
		finalText = postDecision.Replacement
		assistantTurn.WasModified = true
		observability.Emit(ctx, o.observer, EventPolicyRewrite, observability.LevelInfo,
			"pipeline.Submit", map[string]any{
				"session_id": sessionID,
				"stage":      string(policy.StagePost),
				"rule_id":    postDecision.RuleID,
			})
	}

	assistantTurn.SanitizedText = finalText
	result.FinalText = finalText

	if err := o.store.Append(persistCtx, sessionID, userTurn, assistantTurn); err != nil {
		o.reportPersistFailure(ctx, result, err)
		if !result.State.Terminal() {
			result.advance(StateFailed)
		}
		return result, nil
	}

	if !result.State.Terminal() {
		result.advance(StatePersisted)
		result.advance(StateCompleted)
	}
	observability.Emit(ctx, o.observer, EventCompleted, observability.LevelInfo,
		"pipeline.Submit", map[string]any{
			"session_id": sessionID,
			"state":      string(result.State),
			"intent":     string(result.Intent),
			"blocked":    result.WasBlocked,
		})
	return result, nil
}

// loadHistory returns the trailing window of prior turns for prompt assembly.
// An unknown session simply has no history yet; any other load fault degrades
// to an empty window rather than failing the traversal.
func (o *Orchestrator) loadHistory(ctx context.Context, sessionID string) []protocol.Turn {
	history, err := o.store.LoadHistory(ctx, sessionID, o.historyWindow)
	if err != nil && !errors.Is(err, store.ErrSessionNotFound) {
		observability.Emit(ctx, o.observer, EventHistoryLoadFailed, observability.LevelWarning,
			"pipeline.Submit", map[string]any{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		return nil
	}
	return history
}

func (o *Orchestrator) reportPersistFailure(ctx context.Context, result *Result, err error) {
	result.ErrorKind = ErrKindPersistenceWriteFailed
	observability.Emit(ctx, o.observer, EventPersistFailed, observability.LevelError,
		"pipeline.Submit", map[string]any{
			"session_id": result.SessionID,
			"error":      err.Error(),
		})
}
