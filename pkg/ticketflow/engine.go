package ticketflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/randalmurphal/ticketflow/pkg/ticketflow/checkpoint"
	"github.com/randalmurphal/ticketflow/pkg/ticketflow/config"
	"github.com/randalmurphal/ticketflow/pkg/ticketflow/event"
	"github.com/randalmurphal/ticketflow/pkg/ticketflow/ledger"
	"github.com/randalmurphal/ticketflow/pkg/ticketflow/llm"
	"github.com/randalmurphal/ticketflow/pkg/ticketflow/lock"
	"github.com/randalmurphal/ticketflow/pkg/ticketflow/observability"
	"github.com/randalmurphal/ticketflow/pkg/ticketflow/tracker"
)

// ResultKind classifies an engine result.
type ResultKind string

// Result kinds.
const (
	// ResultContinuing means the run mutated state and control returns
	// to the caller with nothing pending.
	ResultContinuing ResultKind = "continuing"

	// ResultSuspended means the run paused at a human-in-the-loop gate.
	// A checkpoint was persisted; resume with the human's response.
	ResultSuspended ResultKind = "suspended"

	// ResultCompleted means the flow terminated: ticket created, or a
	// review/discussion reply produced.
	ResultCompleted ResultKind = "completed"
)

// Suspension describes what a suspended run is waiting for.
type Suspension struct {
	Kind      PendingKind
	Questions []Question

	// Draft is the snapshot presented to the human (PREVIEW) or under
	// construction (ASK).
	Draft Draft
}

// EngineResult is the outcome of one Advance, Resume, or Approve call.
type EngineResult struct {
	Kind      ResultKind
	SessionID string
	Intent    Intent

	// Suspension is set when Kind is ResultSuspended.
	Suspension *Suspension

	// Reply is the discussion flow's response text.
	Reply string

	// Review is the review flow's findings.
	Review *ReviewResult

	// FinalStatus is the session status after the call.
	FinalStatus Status

	// Created identifies the ticket, set after the terminal create.
	Created *tracker.Created
}

// Engine executes the drafting workflow: it owns all state mutation
// and persistence, serializes activity per session, and suspends at
// human-in-the-loop gates via durable checkpoints.
type Engine struct {
	router   *Router
	extract  extractNode
	validate validateNode
	review   reviewNode
	discuss  discussNode

	store  checkpoint.Store
	ledger ledger.Ledger
	locks  *lock.Manager
	cfg    config.Config

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	emitter event.Emitter
	tracker tracker.Client
	clock   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Nil disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithSpans sets the span manager, enabling tracing.
func WithSpans(s observability.SpanManager) Option {
	return func(e *Engine) { e.spans = s }
}

// WithEmitter sets the outbound event emitter.
func WithEmitter(em event.Emitter) Option {
	return func(e *Engine) { e.emitter = em }
}

// WithTracker sets the issue-tracker client. Without one the terminal
// create transition fails with ErrNoTracker.
func WithTracker(t tracker.Client) Option {
	return func(e *Engine) { e.tracker = t }
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// NewEngine creates an engine. The invoker, checkpoint store, and
// ledger are required collaborators; everything else is optional.
func NewEngine(invoker llm.Invoker, store checkpoint.Store, ldg ledger.Ledger, cfg config.Config, opts ...Option) *Engine {
	e := &Engine{
		router:   NewRouter(invoker),
		extract:  extractNode{invoker: invoker},
		validate: validateNode{invoker: invoker},
		review:   reviewNode{invoker: invoker},
		discuss:  discussNode{invoker: invoker},
		store:    store,
		ledger:   ldg,
		locks:    lock.NewManager(),
		cfg:      cfg,
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Advance processes one inbound message. The session lock serializes
// concurrent calls for the same session; messages arriving during a
// run wait in arrival order.
//
// Routing happens before any state mutation: REVIEW and DISCUSSION
// messages terminate without touching the draft or the checkpoint
// store.
func (e *Engine) Advance(ctx context.Context, ev event.Inbound, recentContext ...string) (EngineResult, error) {
	if ev.SessionID == "" {
		return EngineResult{}, ErrEmptySessionID
	}

	var result EngineResult
	err := e.locks.WithLock(ev.SessionID, func() error {
		var innerErr error
		result, innerErr = e.advanceLocked(ctx, ev, recentContext)
		return innerErr
	})
	return result, err
}

func (e *Engine) advanceLocked(ctx context.Context, ev event.Inbound, recentContext []string) (result EngineResult, err error) {
	observability.LogAdvanceStart(e.logger, ev.SessionID, ev.SenderID)
	start := e.clock()

	spanCtx, span := e.spans.StartAdvanceSpan(ctx, ev.SessionID)
	defer func() { e.spans.EndSpanWithError(span, err) }()
	ctx = spanCtx

	intent := e.router.Classify(ctx, ev.RawText, recentContext)
	observability.LogIntent(e.logger, ev.SessionID, string(intent.Intent), intent.Confidence, intent.Reasons)

	defer func() {
		e.metrics.RecordAdvance(ctx, string(intent.Intent), result.Kind == ResultSuspended, e.clock().Sub(start))
	}()

	switch intent.Intent {
	case IntentReview:
		return e.runReviewFlow(ctx, ev, intent, recentContext)
	case IntentDiscussion:
		return e.runDiscussionFlow(ctx, ev, intent)
	}

	st, found, err := e.loadState(ev.SessionID)
	if err != nil {
		return EngineResult{}, err
	}
	if !found {
		st = newState(ev.SessionID, ev.EvidenceRef, e.clock())
	}
	if st.Session.Status == StatusCreated {
		return EngineResult{}, ErrSessionCreated
	}

	result, err = e.runTicketFlow(ctx, &st, ev)
	result.Intent = intent.Intent
	return result, err
}

// Resume continues a suspended session with a human response. The
// checkpoint is reloaded, the response is injected as the triggering
// event, and execution continues from the suspended gate.
//
// Returns ErrNoCheckpoint if the session was never checkpointed and
// ErrNotSuspended if it is not awaiting a human.
func (e *Engine) Resume(ctx context.Context, ev event.Inbound) (EngineResult, error) {
	if ev.SessionID == "" {
		return EngineResult{}, ErrEmptySessionID
	}

	var result EngineResult
	err := e.locks.WithLock(ev.SessionID, func() error {
		st, found, loadErr := e.loadState(ev.SessionID)
		if loadErr != nil {
			return loadErr
		}
		if !found {
			return ErrNoCheckpoint
		}
		if st.Session.Status != StatusAwaitingUser || st.Pending == nil {
			return ErrNotSuspended
		}

		var innerErr error
		result, innerErr = e.runTicketFlow(ctx, &st, ev)
		result.Intent = IntentTicket
		return innerErr
	})
	return result, err
}

// Approve records a human approval presented against a specific draft
// version and, when the ledger accepts or confirms it, performs the
// terminal create.
//
// presentedHash is the draft version the approver reviewed. If the
// draft has changed since, the approval is stale and rejected with
// StaleApprovalError; the human must re-review.
func (e *Engine) Approve(ctx context.Context, sessionID, approver, presentedHash string) (EngineResult, error) {
	if sessionID == "" {
		return EngineResult{}, ErrEmptySessionID
	}

	var result EngineResult
	err := e.locks.WithLock(sessionID, func() error {
		st, found, loadErr := e.loadState(sessionID)
		if loadErr != nil {
			return loadErr
		}
		if !found {
			return ErrNoCheckpoint
		}
		if st.Session.Status == StatusCreated {
			return ErrSessionCreated
		}
		if st.Session.Status != StatusAwaitingUser || st.Pending == nil || st.Pending.Kind != PendingPreview {
			return ErrNotSuspended
		}
		if presentedHash != st.Draft.Version {
			return &StaleApprovalError{
				SessionID:     sessionID,
				PresentedHash: presentedHash,
				CurrentHash:   st.Draft.Version,
			}
		}

		res, ledgerErr := e.ledger.RecordApproval(ctx, sessionID, presentedHash, approver)
		if ledgerErr != nil {
			return ledgerErr
		}
		observability.LogApproval(e.logger, sessionID, presentedHash, string(res.Outcome))
		e.metrics.RecordApproval(ctx, string(res.Outcome))

		if transErr := e.transition(&st, StatusReadyToCreate); transErr != nil {
			return transErr
		}
		st.Pending = nil
		st.ReaskCount = 0

		created, createErr := e.createTicket(ctx, &st)
		if createErr != nil {
			return createErr
		}

		result = EngineResult{
			Kind:        ResultCompleted,
			SessionID:   sessionID,
			Intent:      IntentTicket,
			FinalStatus: st.Session.Status,
			Created:     created,
		}
		return nil
	})
	return result, err
}

// Reject records a human rejection of a previewed draft and returns
// the session to collecting so the conversation can refine it. The
// draft itself is preserved.
func (e *Engine) Reject(ctx context.Context, sessionID, approver, presentedHash string) (EngineResult, error) {
	if sessionID == "" {
		return EngineResult{}, ErrEmptySessionID
	}

	var result EngineResult
	err := e.locks.WithLock(sessionID, func() error {
		st, found, loadErr := e.loadState(sessionID)
		if loadErr != nil {
			return loadErr
		}
		if !found {
			return ErrNoCheckpoint
		}
		if st.Session.Status != StatusAwaitingUser || st.Pending == nil || st.Pending.Kind != PendingPreview {
			return ErrNotSuspended
		}

		res, ledgerErr := e.ledger.RecordRejection(ctx, sessionID, presentedHash, approver)
		if ledgerErr != nil {
			return ledgerErr
		}
		observability.LogApproval(e.logger, sessionID, presentedHash, string(res.Outcome))
		e.metrics.RecordApproval(ctx, string(res.Outcome))

		// Backward transition: bookkeeping is discarded, the draft stays.
		if transErr := e.transition(&st, StatusCollecting); transErr != nil {
			return transErr
		}
		st.Pending = nil
		st.ReaskCount = 0

		if cpErr := e.saveCheckpoint(ctx, &st, "reject"); cpErr != nil {
			return cpErr
		}

		result = EngineResult{
			Kind:        ResultContinuing,
			SessionID:   sessionID,
			Intent:      IntentTicket,
			FinalStatus: st.Session.Status,
		}
		return nil
	})
	return result, err
}

// SweepReminders scans suspended sessions and emits the single
// automated reminder for any that have waited longer than the
// configured timeout. Returns the number of reminders sent. Sessions
// that already received their reminder stay suspended silently.
func (e *Engine) SweepReminders(ctx context.Context, now time.Time) (int, error) {
	if e.cfg.ReminderAfter <= 0 {
		return 0, nil
	}

	sessions, err := e.store.Sessions()
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, sessionID := range sessions {
		err := e.locks.WithLock(sessionID, func() error {
			st, found, loadErr := e.loadState(sessionID)
			if loadErr != nil || !found {
				return loadErr
			}
			if st.Session.Status != StatusAwaitingUser || st.Pending == nil {
				return nil
			}
			if st.Pending.Reminded || now.Sub(st.Pending.AskedAt) < e.cfg.ReminderAfter {
				return nil
			}

			e.emit(ctx, event.NewOutbound(sessionID, event.KindNotify, map[string]any{
				"kind":     "reminder",
				"pending":  string(st.Pending.Kind),
				"asked_at": st.Pending.AskedAt,
			}))
			st.Pending.Reminded = true
			st.Session.touch(e.clock())
			if cpErr := e.saveCheckpoint(ctx, &st, "reminder"); cpErr != nil {
				return cpErr
			}
			sent++
			return nil
		})
		if err != nil {
			return sent, err
		}
	}
	return sent, nil
}

// runTicketFlow executes one extraction, validation, decision cycle.
// Every node execution increments the step counter and is followed by
// a checkpoint; the engine owns all mutation, nodes never write
// storage.
func (e *Engine) runTicketFlow(ctx context.Context, st *State, ev event.Inbound) (EngineResult, error) {
	sessionID := st.Session.ID

	// A response to a suspended gate re-enters collection, as does a
	// session reloaded from a mid-cycle checkpoint after a restart. Ask
	// bookkeeping survives until the next decision for re-ask
	// accounting.
	switch st.Session.Status {
	case StatusValidating, StatusAwaitingUser, StatusReadyToCreate:
		if err := e.transition(st, StatusCollecting); err != nil {
			return EngineResult{}, err
		}
		if st.Pending != nil && st.Pending.Kind == PendingPreview {
			st.Pending = nil
		}
	}

	// Loop protection: once the ceiling is hit the engine stops cycling
	// and forces a terminal decision instead of raising.
	if st.Session.StepCount >= e.cfg.MaxSteps {
		observability.LogNodeSoftError(e.logger, sessionID, "engine",
			&StepLimitError{Max: e.cfg.MaxSteps, SessionID: sessionID})
		if st.Session.Status == StatusCollecting {
			if err := e.transition(st, StatusValidating); err != nil {
				return EngineResult{}, err
			}
		}
		forced := DecisionResult{Action: ActionPreview, Reason: "step ceiling reached, proceeding with partial draft"}
		return e.applyDecision(ctx, st, forced, ValidationReport{})
	}

	// Extraction. Failure degrades to an empty patch; the draft is
	// never corrupted or rolled back.
	patch, err := e.executeExtract(ctx, st, ev)
	if err != nil {
		observability.LogNodeSoftError(e.logger, sessionID, "extract", err)
	}
	draft, ops := st.Draft.Apply(patch)
	st.Draft = draft
	if len(ops) > 0 {
		st.Session.touch(e.clock())
	}
	observability.LogDraftOps(e.logger, sessionID, len(ops), countConflictOps(ops))

	if err := e.transition(st, StatusValidating); err != nil {
		return EngineResult{}, err
	}
	if err := e.saveCheckpoint(ctx, st, "node"); err != nil {
		return EngineResult{}, err
	}

	// Validation. Failure degrades to the rule-based report.
	report, err := e.executeValidate(ctx, st)
	if err != nil {
		observability.LogNodeSoftError(e.logger, sessionID, "validate", err)
	}
	if err := e.saveCheckpoint(ctx, st, "node"); err != nil {
		return EngineResult{}, err
	}

	// No-change detector: a cycle that altered neither the draft nor
	// the report must not produce the same ASK again.
	fp := cycleFingerprint(st.Draft, report)
	noChange := st.LastFingerprint != "" && fp == st.LastFingerprint
	st.LastFingerprint = fp

	// Re-ask accounting: consecutive ASKs targeting the same
	// missing-field set increment the counter; anything else resets it.
	if st.Pending != nil && st.Pending.Kind == PendingAsk && sameFieldSet(report.MissingFields, st.Pending.MissingFields) {
		st.ReaskCount++
	} else {
		st.ReaskCount = 0
	}

	confirmed := false
	if rec, findErr := e.ledger.Find(ctx, sessionID, st.Draft.Version); findErr == nil && rec.Status == ledger.StatusApproved {
		confirmed = true
	}

	st.Session.StepCount++
	decision := decide(decideInput{
		Draft:        st.Draft,
		Report:       report,
		ReaskCount:   st.ReaskCount,
		MaxReasks:    e.cfg.MaxReasks,
		MaxQuestions: e.cfg.MaxQuestionsPerAsk,
		Confirmed:    confirmed,
	})

	if noChange && decision.Action == ActionAsk && st.Draft.MeetsMinimumBar() {
		decision = DecisionResult{
			Action: ActionPreview,
			Reason: "cycle produced no change, forcing decision",
		}
	}

	return e.applyDecision(ctx, st, decision, report)
}

// executeExtract runs the extraction node with per-node observability.
func (e *Engine) executeExtract(ctx context.Context, st *State, ev event.Inbound) (DraftPatch, error) {
	nodeCtx, span := e.spans.StartNodeSpan(ctx, "extract")
	elapsed := observability.TimedOperation()
	start := e.clock()

	st.Session.StepCount++
	patch, err := e.extract.run(nodeCtx, st.Draft, ev)

	e.metrics.RecordNodeExecution(nodeCtx, "extract", e.clock().Sub(start), err)
	e.spans.EndSpanWithError(span, err)
	if err == nil {
		observability.LogNodeComplete(e.logger, st.Session.ID, "extract", elapsed())
	}
	return patch, err
}

// executeValidate runs the validation node with per-node observability.
func (e *Engine) executeValidate(ctx context.Context, st *State) (ValidationReport, error) {
	nodeCtx, span := e.spans.StartNodeSpan(ctx, "validate")
	elapsed := observability.TimedOperation()
	start := e.clock()

	st.Session.StepCount++
	report, err := e.validate.run(nodeCtx, st.Draft)

	e.metrics.RecordNodeExecution(nodeCtx, "validate", e.clock().Sub(start), err)
	e.spans.EndSpanWithError(span, err)
	if err == nil {
		observability.LogNodeComplete(e.logger, st.Session.ID, "validate", elapsed())
	}
	return report, err
}

// applyDecision turns a decision into a transition, a checkpoint, and
// an outbound event.
func (e *Engine) applyDecision(ctx context.Context, st *State, decision DecisionResult, report ValidationReport) (EngineResult, error) {
	sessionID := st.Session.ID
	now := e.clock()

	switch decision.Action {
	case ActionAsk:
		if err := e.transition(st, StatusAwaitingUser); err != nil {
			return EngineResult{}, err
		}
		st.Pending = &PendingAskState{
			Kind:          PendingAsk,
			Questions:     decision.Questions,
			MissingFields: append([]string(nil), report.MissingFields...),
			AskedAt:       now,
		}
		if err := e.saveCheckpoint(ctx, st, "suspend"); err != nil {
			return EngineResult{}, err
		}

		e.metrics.RecordSuspension(ctx, string(PendingAsk))
		observability.LogSuspend(e.logger, sessionID, string(PendingAsk), len(decision.Questions))
		e.emit(ctx, event.NewOutbound(sessionID, event.KindAsk, map[string]any{
			"questions": decision.Questions,
			"reason":    decision.Reason,
		}))

		return EngineResult{
			Kind:      ResultSuspended,
			SessionID: sessionID,
			Suspension: &Suspension{
				Kind:      PendingAsk,
				Questions: decision.Questions,
				Draft:     st.Draft,
			},
			FinalStatus: st.Session.Status,
		}, nil

	case ActionPreview:
		if err := e.transition(st, StatusAwaitingUser); err != nil {
			return EngineResult{}, err
		}
		st.Pending = &PendingAskState{
			Kind:    PendingPreview,
			AskedAt: now,
		}
		if err := e.saveCheckpoint(ctx, st, "suspend"); err != nil {
			return EngineResult{}, err
		}

		e.metrics.RecordSuspension(ctx, string(PendingPreview))
		observability.LogSuspend(e.logger, sessionID, string(PendingPreview), 0)
		e.emit(ctx, event.NewOutbound(sessionID, event.KindPreview, map[string]any{
			"draft":   st.Draft,
			"version": st.Draft.Version,
			"summary": st.Draft.Summary(),
			"reason":  decision.Reason,
		}))

		return EngineResult{
			Kind:      ResultSuspended,
			SessionID: sessionID,
			Suspension: &Suspension{
				Kind:  PendingPreview,
				Draft: st.Draft,
			},
			FinalStatus: st.Session.Status,
		}, nil

	case ActionReadyToCreate:
		if err := e.transition(st, StatusReadyToCreate); err != nil {
			return EngineResult{}, err
		}
		st.Pending = nil
		created, err := e.createTicket(ctx, st)
		if err != nil {
			return EngineResult{}, err
		}
		return EngineResult{
			Kind:        ResultCompleted,
			SessionID:   sessionID,
			FinalStatus: st.Session.Status,
			Created:     created,
		}, nil
	}

	return EngineResult{}, &NodeError{Node: "decide", Op: "apply", Err: errors.New("unknown action " + string(decision.Action))}
}

// createTicket performs the terminal create: tracker write, transition
// to created, final checkpoint, NOTIFY.
func (e *Engine) createTicket(ctx context.Context, st *State) (*tracker.Created, error) {
	if e.tracker == nil {
		return nil, ErrNoTracker
	}

	created, err := e.tracker.CreateIssue(ctx, issueFromDraft(st.Draft))
	if err != nil {
		return nil, &NodeError{Node: "create", Op: "tracker", Err: err}
	}

	if err := e.transition(st, StatusCreated); err != nil {
		return nil, err
	}

	// The terminal save is its own step: superseded checkpoints are
	// retained for audit, and the suspension record must survive it.
	st.Session.StepCount++
	if err := e.saveCheckpoint(ctx, st, "complete"); err != nil {
		return nil, err
	}

	observability.LogCreated(e.logger, st.Session.ID, created.Key)
	e.emit(ctx, event.NewOutbound(st.Session.ID, event.KindNotify, map[string]any{
		"kind": "created",
		"key":  created.Key,
		"url":  created.URL,
	}))
	return &created, nil
}

// transition moves the session along an edge of the state machine.
func (e *Engine) transition(st *State, to Status) error {
	if !canTransition(st.Session.Status, to) {
		return &TransitionError{SessionID: st.Session.ID, From: st.Session.Status, To: to}
	}
	st.Session.Status = to
	st.Session.touch(e.clock())
	return nil
}

// saveCheckpoint persists engine state. Checkpoint failure is fatal:
// durability is the contract that makes suspension safe.
func (e *Engine) saveCheckpoint(ctx context.Context, st *State, reason string) error {
	sessionID := st.Session.ID

	blob, err := marshalState(*st)
	if err != nil {
		return &CheckpointError{SessionID: sessionID, Op: "serialize", Err: errors.Join(ErrSerializeState, err)}
	}

	data, err := checkpoint.New(sessionID, st.Session.StepCount, blob, reason).Marshal()
	if err != nil {
		return &CheckpointError{SessionID: sessionID, Op: "marshal", Err: err}
	}

	if err := e.store.Save(sessionID, st.Session.StepCount, data); err != nil {
		return &CheckpointError{SessionID: sessionID, Op: "save", Err: err}
	}

	observability.LogCheckpoint(e.logger, sessionID, st.Session.StepCount, len(data))
	e.metrics.RecordCheckpoint(ctx, int64(len(data)))
	return nil
}

// loadState reloads the latest checkpointed state for a session.
func (e *Engine) loadState(sessionID string) (State, bool, error) {
	_, data, err := e.store.Load(sessionID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, &CheckpointError{SessionID: sessionID, Op: "load", Err: err}
	}

	cp, err := checkpoint.Unmarshal(data)
	if err != nil {
		return State{}, false, &CheckpointError{SessionID: sessionID, Op: "decode", Err: err}
	}

	st, err := unmarshalState(cp.State)
	if err != nil {
		return State{}, false, &CheckpointError{SessionID: sessionID, Op: "decode", Err: errors.Join(ErrDeserializeState, err)}
	}
	return st, true, nil
}

// runReviewFlow performs analysis without touching draft or
// checkpoints. The review node has no tracker access.
func (e *Engine) runReviewFlow(ctx context.Context, ev event.Inbound, intent IntentResult, recentContext []string) (EngineResult, error) {
	nodeCtx, span := e.spans.StartNodeSpan(ctx, "review")
	start := e.clock()

	review, err := e.review.run(nodeCtx, ev.RawText, intent.PersonaHint, recentContext)

	e.metrics.RecordNodeExecution(nodeCtx, "review", e.clock().Sub(start), err)
	e.spans.EndSpanWithError(span, err)
	if err != nil {
		observability.LogNodeSoftError(e.logger, ev.SessionID, "review", err)
		return EngineResult{Kind: ResultCompleted, SessionID: ev.SessionID, Intent: intent.Intent}, nil
	}

	e.emit(ctx, event.NewOutbound(ev.SessionID, event.KindNotify, map[string]any{
		"kind":   "review",
		"review": review,
	}))
	return EngineResult{
		Kind:      ResultCompleted,
		SessionID: ev.SessionID,
		Intent:    intent.Intent,
		Review:    &review,
	}, nil
}

// runDiscussionFlow replies and terminates immediately: no state, no
// checkpoint.
func (e *Engine) runDiscussionFlow(ctx context.Context, ev event.Inbound, intent IntentResult) (EngineResult, error) {
	nodeCtx, span := e.spans.StartNodeSpan(ctx, "discuss")
	start := e.clock()

	reply, err := e.discuss.run(nodeCtx, ev.RawText)

	e.metrics.RecordNodeExecution(nodeCtx, "discuss", e.clock().Sub(start), err)
	e.spans.EndSpanWithError(span, err)
	if err != nil {
		observability.LogNodeSoftError(e.logger, ev.SessionID, "discuss", err)
		return EngineResult{Kind: ResultCompleted, SessionID: ev.SessionID, Intent: intent.Intent}, nil
	}

	e.emit(ctx, event.NewOutbound(ev.SessionID, event.KindNotify, map[string]any{
		"kind":  "reply",
		"reply": reply,
	}))
	return EngineResult{
		Kind:      ResultCompleted,
		SessionID: ev.SessionID,
		Intent:    intent.Intent,
		Reply:     reply,
	}, nil
}

// emit delivers an outbound event. Emit failure is logged, never
// aborts the run.
func (e *Engine) emit(ctx context.Context, ev event.Outbound) {
	if e.emitter == nil {
		return
	}
	if err := e.emitter.Emit(ctx, ev); err != nil {
		observability.LogNodeSoftError(e.logger, ev.SessionID, "emit", err)
	}
}

// issueFromDraft assembles the tracker payload from an approved draft.
func issueFromDraft(d Draft) tracker.Issue {
	var desc strings.Builder
	if d.Problem != "" {
		desc.WriteString("## Problem\n")
		desc.WriteString(d.Problem)
		desc.WriteString("\n")
	}
	if d.Solution != "" {
		desc.WriteString("\n## Proposed solution\n")
		desc.WriteString(d.Solution)
		desc.WriteString("\n")
	}
	if len(d.Risks) > 0 {
		desc.WriteString("\n## Risks\n")
		for _, r := range d.Risks {
			desc.WriteString("- ")
			desc.WriteString(r.Text)
			desc.WriteString("\n")
		}
	}
	if len(d.Dependencies) > 0 {
		desc.WriteString("\n## Dependencies\n")
		for _, dep := range d.Dependencies {
			desc.WriteString("- ")
			desc.WriteString(dep.Text)
			desc.WriteString("\n")
		}
	}

	metadata := map[string]string{"draft_version": d.Version}
	return tracker.Issue{
		Title:              d.Title,
		Description:        desc.String(),
		AcceptanceCriteria: itemTexts(d.AcceptanceCriteria),
		Metadata:           metadata,
	}
}

// sameFieldSet compares two field sets ignoring order.
func sameFieldSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, f := range a {
		if !containsString(b, f) {
			return false
		}
	}
	return true
}

func countConflictOps(ops []Op) int {
	n := 0
	for _, op := range ops {
		if op.Type == OpConflict {
			n++
		}
	}
	return n
}
