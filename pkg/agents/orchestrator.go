package agents

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/empassist/empassist/internal/logging"
	"github.com/empassist/empassist/internal/metrics"
)

// Run statuses. Anything outside the non-terminal set is terminal.
const (
	StatusQueued         = "queued"
	StatusInProgress     = "in_progress"
	StatusRequiresAction = "requires_action"
	StatusCompleted      = "completed"
	StatusFailed         = "failed"
)

// ErrRunTimeout is returned when a run does not reach a terminal status
// within the polling budget.
var ErrRunTimeout = errors.New("run polling timed out")

// TurnResult is the outcome of one submitted turn.
type TurnResult struct {
	ThreadID string `json:"thread_id"`
	RunID    string `json:"run_id"`
	Status   string `json:"status"`
	Answer   string `json:"answer"`
}

// Orchestrator drives one turn end to end: thread create-or-reuse, message
// append, run create, poll to terminal, answer extraction. One turn produces
// exactly one run; callers must not submit a new turn for a thread until the
// prior one returns.
type Orchestrator struct {
	client  *Client
	agentID string

	pollInterval time.Duration
	timeout      time.Duration

	metrics *metrics.Metrics
	logger  *slog.Logger
}

// OrchestratorOption configures the Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithPollInterval overrides the status poll interval.
func WithPollInterval(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.pollInterval = d }
}

// WithTimeout overrides the poll budget per run.
func WithTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithMetrics wires Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger configures a structured logger.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = logger }
}

// NewOrchestrator creates an orchestrator bound to one provisioned agent.
func NewOrchestrator(client *Client, agentID string, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		client:       client,
		agentID:      agentID,
		pollInterval: 900 * time.Millisecond,
		timeout:      120 * time.Second,
		metrics:      metrics.NewNop(),
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SubmitTurn submits one user turn. An empty threadID starts a new
// conversation; the returned ThreadID must be reused for subsequent turns.
func (o *Orchestrator) SubmitTurn(ctx context.Context, threadID, prompt string) (TurnResult, error) {
	if threadID == "" {
		thread, err := o.client.CreateThread(ctx)
		if err != nil {
			return TurnResult{}, err
		}
		threadID = thread.ID
		o.logger.Debug("thread created", "thread_id", threadID)
	}

	if err := o.client.CreateMessage(ctx, threadID, "user", prompt); err != nil {
		return TurnResult{ThreadID: threadID}, err
	}

	run, err := o.client.CreateRun(ctx, threadID, o.agentID)
	if err != nil {
		return TurnResult{ThreadID: threadID}, err
	}

	started := time.Now()
	status, err := o.pollRun(ctx, threadID, run.ID, run.Status)
	o.metrics.RunDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		o.metrics.RunsTotal.WithLabelValues("timeout").Inc()
		return TurnResult{ThreadID: threadID, RunID: run.ID, Status: status}, err
	}
	o.metrics.RunsTotal.WithLabelValues(status).Inc()

	result := TurnResult{ThreadID: threadID, RunID: run.ID, Status: status}
	if status != StatusCompleted {
		// Non-completed terminal status: the caller surfaces this as a
		// backend failure, with no answer text.
		o.logger.Warn("run ended without completion",
			"thread_id", threadID,
			"run_id", run.ID,
			"status", status,
		)
		return result, nil
	}

	messages, err := o.client.ListMessages(ctx, threadID)
	if err != nil {
		return result, err
	}
	result.Answer = latestAssistantText(messages)
	return result, nil
}

// pollRun polls until the run leaves the non-terminal statuses or the budget
// is spent.
func (o *Orchestrator) pollRun(ctx context.Context, threadID, runID, status string) (string, error) {
	deadline := time.Now().Add(o.timeout)
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for !isTerminal(status) {
		if time.Now().After(deadline) {
			return status, ErrRunTimeout
		}
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}

		run, err := o.client.GetRun(ctx, threadID, runID)
		if err != nil {
			return status, err
		}
		status = run.Status
	}
	return status, nil
}

func isTerminal(status string) bool {
	switch status {
	case StatusQueued, StatusInProgress, StatusRequiresAction:
		return false
	}
	return true
}

// latestAssistantText picks the newest assistant-authored message and
// extracts its first content block's text, or "" when none exists.
func latestAssistantText(list MessageList) string {
	var assistant []Message
	for _, m := range list.Data {
		if m.Role == "assistant" {
			assistant = append(assistant, m)
		}
	}
	if len(assistant) == 0 {
		return ""
	}
	sort.SliceStable(assistant, func(i, j int) bool {
		return assistant[i].CreatedAt > assistant[j].CreatedAt
	})
	if len(assistant[0].Content) == 0 {
		return ""
	}
	return assistant[0].Content[0].TextValue()
}
