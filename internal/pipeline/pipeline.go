// Package pipeline orchestrates one honeypot turn: classify the inbound
// message, produce a reply, extract intelligence, persist the session, and
// report scam detections to the evaluation endpoint.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/honeypot-ai/honeypot-server/internal/agent"
	"github.com/honeypot-ai/honeypot-server/internal/callback"
	"github.com/honeypot-ai/honeypot-server/internal/domain"
	"github.com/honeypot-ai/honeypot-server/internal/feed"
	"github.com/honeypot-ai/honeypot-server/internal/store"
)

// Mode selects the call-site behavior of a turn. The two surfaces differ
// in filler reply, non-scam status, extraction policy, and whether the
// evaluation callback fires.
type Mode string

const (
	// ModeAPI is the externally evaluated message endpoint.
	ModeAPI Mode = "api"
	// ModeSimulator is the interactive simulation surface.
	ModeSimulator Mode = "simulator"
)

// Fillers returned on non-scam turns, one per call site.
const (
	apiNonScamReply       = "Message processed. No scam detected."
	simulatorNonScamReply = "I don't understand. Who is this?"
)

// ErrSessionBusy is returned when a turn is already in flight for the
// session. Runs are never re-entrant against the same session.
var ErrSessionBusy = errors.New("pipeline: session turn already in flight")

// Turn is one inbound message to process.
type Turn struct {
	SessionID string
	Text      string
	Timestamp time.Time
	// History is the caller-supplied conversation (API mode). Simulator
	// turns ignore it and continue from the stored session instead. API
	// turns rebuild the stored messages from it wholesale: the evaluator
	// replays full context each call, so the caller's history is
	// authoritative even when shorter than what is stored.
	History []domain.Message
	Mode    Mode
}

// Result is the outcome of a processed turn.
type Result struct {
	Session   *domain.Session
	Reply     string
	Detection agent.Detection
	ScamFlag  bool
}

// Pipeline sequences detect → reply → extract → persist → callback for
// each inbound message. Steps are strictly sequential; each depends on the
// previous step's output.
type Pipeline struct {
	ai        *agent.Service
	repo      store.Repository
	callbacks *callback.Client
	hub       *feed.Hub
	engLog    *agent.EngagementLogger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New creates a pipeline. The hub and engagement logger are optional.
func New(ai *agent.Service, repo store.Repository, callbacks *callback.Client, hub *feed.Hub, engLog *agent.EngagementLogger) *Pipeline {
	return &Pipeline{
		ai:        ai,
		repo:      repo,
		callbacks: callbacks,
		hub:       hub,
		engLog:    engLog,
		inflight:  make(map[string]struct{}),
	}
}

// Process runs one turn. Model failures degrade to safe defaults inside the
// agent service; only store failures surface as errors.
func (p *Pipeline) Process(ctx context.Context, turn Turn) (*Result, error) {
	if err := p.acquire(turn.SessionID); err != nil {
		return nil, err
	}
	defer p.release(turn.SessionID)

	prior, err := p.repo.GetSession(ctx, turn.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", turn.SessionID, err)
	}

	ts := turn.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	scammerMsg := domain.Message{Sender: domain.SenderScammer, Text: turn.Text, Timestamp: ts}

	// The simulator continues the stored conversation; the API surface
	// trusts the history the caller supplied on this request.
	var base []domain.Message
	switch turn.Mode {
	case ModeSimulator:
		if prior != nil {
			base = prior.Messages
		}
	default:
		base = turn.History
	}

	// The simulator call site includes the incoming message in the history
	// it hands the model; the API call site does not.
	detectHistory := base
	if turn.Mode == ModeSimulator {
		detectHistory = append(append([]domain.Message{}, base...), scammerMsg)
	}

	detection := p.ai.DetectScamIntent(ctx, turn.Text, detectHistory)

	// Sticky and asymmetric: once a session is flagged, it stays flagged
	// even when a later single message classifies clean.
	isScam := detection.IsScam || (prior != nil && prior.ScamDetected)

	var reply string
	if isScam {
		reply = p.ai.GenerateReply(ctx, turn.Text, detectHistory)
	} else if turn.Mode == ModeSimulator {
		reply = simulatorNonScamReply
	} else {
		reply = apiNonScamReply
	}
	agentMsg := domain.NewMessage(domain.SenderAgent, reply)

	full := append(append([]domain.Message{}, base...), scammerMsg, agentMsg)

	session := p.assembleSession(ctx, turn, prior, detection, isScam, full)

	if err := p.repo.UpsertSession(ctx, session); err != nil {
		return nil, fmt.Errorf("upsert session %s: %w", session.ID, err)
	}

	p.logTurn(turn, session, scammerMsg, agentMsg, detection)

	// The callback fires only for scam-positive API turns, after the
	// upsert has committed. Delivery failure is logged and tracked as a
	// status; it never rolls the turn back.
	if isScam && turn.Mode == ModeAPI && p.callbacks != nil {
		if err := p.callbacks.Deliver(ctx, domain.NewCallbackPayload(session)); err != nil {
			slog.Error("Evaluation callback failed",
				"session_id", session.ID, "error", err)
		}
	}

	if p.hub != nil {
		p.hub.Broadcast(session)
	}

	return &Result{
		Session:   session,
		Reply:     reply,
		Detection: detection,
		ScamFlag:  isScam,
	}, nil
}

// assembleSession builds the upserted record for this turn. Intelligence is
// wholesale-replaced by each extraction pass, never merged; non-scam
// simulator turns carry the prior snapshot forward untouched.
func (p *Pipeline) assembleSession(ctx context.Context, turn Turn, prior *domain.Session, detection agent.Detection, isScam bool, messages []domain.Message) *domain.Session {
	intel := domain.EmptyIntelligence()
	notes := ""
	if prior != nil {
		intel = prior.Intelligence
		notes = prior.AgentNotes
	}

	// The API surface extracts on every turn; the simulator only once a
	// session is flagged.
	if isScam || turn.Mode == ModeAPI {
		extraction := p.ai.ExtractIntelligence(ctx, messages)
		intel = extraction.Intelligence
		notes = extraction.Notes
	}

	status := domain.StatusActive
	if turn.Mode == ModeAPI {
		status = domain.StatusSafe
	}

	session := &domain.Session{
		ID:             turn.SessionID,
		Status:         status,
		Messages:       messages,
		ScamConfidence: detection.Confidence,
		Intelligence:   intel,
		AgentNotes:     notes,
		LastUpdated:    time.Now(),
	}
	if isScam {
		session.MarkScam()
	}
	return session
}

func (p *Pipeline) logTurn(turn Turn, session *domain.Session, scammerMsg, agentMsg domain.Message, detection agent.Detection) {
	if p.engLog == nil {
		return
	}
	p.engLog.Log(agent.EngagementEvent{
		Timestamp:    scammerMsg.Timestamp,
		SessionID:    session.ID,
		Mode:         string(turn.Mode),
		Sender:       string(scammerMsg.Sender),
		Text:         scammerMsg.Text,
		ScamDetected: session.ScamDetected,
		Confidence:   detection.Confidence,
		Reason:       detection.Reason,
	})
	p.engLog.Log(agent.EngagementEvent{
		Timestamp:    agentMsg.Timestamp,
		SessionID:    session.ID,
		Mode:         string(turn.Mode),
		Sender:       string(agentMsg.Sender),
		Text:         agentMsg.Text,
		ScamDetected: session.ScamDetected,
		Confidence:   detection.Confidence,
	})
}

func (p *Pipeline) acquire(sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inflight[sessionID]; busy {
		return ErrSessionBusy
	}
	p.inflight[sessionID] = struct{}{}
	return nil
}

func (p *Pipeline) release(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, sessionID)
}
