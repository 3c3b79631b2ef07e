package dialogue

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/empassist/empassist/internal/logging"
	"github.com/empassist/empassist/pkg/domain"
	"github.com/empassist/empassist/pkg/ports"
	"github.com/empassist/empassist/pkg/tools"
)

const (
	maxValidationAttempts = 3
	maxEditLoops          = 2
)

// Manager is the dialogue state machine. It owns all session state decisions:
// what to ask next, when to invoke which backend tool, and how to interpret
// tool results. Tool failures are converted into user-facing branches here and
// are never surfaced raw.
type Manager struct {
	validator ports.Validator
	updater   ports.Updater
	logger    *slog.Logger
	clock     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// New creates a dialogue manager over the two backend tool adapters.
func New(validator ports.Validator, updater ports.Updater, opts ...Option) *Manager {
	m := &Manager{
		validator: validator,
		updater:   updater,
		logger:    logging.NewNop(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Respond processes one user turn against the session and returns the next
// assistant utterance. The session is mutated in place; the caller persists it.
func (m *Manager) Respond(ctx context.Context, s *domain.Session, text string) string {
	if s.Ended() {
		return msgSessionEnded
	}

	ext := Extract(text, s)
	reply := m.respond(ctx, s, ext)
	s.Touch(m.clock())

	m.logger.Debug("turn processed",
		"session_id", s.ID,
		"phase", s.Phase,
		"validated", s.Validated,
		"pending_fields", len(s.PendingFields),
		"validation_attempts", s.ValidationAttempts,
		"edit_loops", s.EditLoops,
	)
	return reply
}

func (m *Manager) respond(ctx context.Context, s *domain.Session, ext Extraction) string {
	m.mergeIdentity(s, ext)
	mergeIntents(s, ext)

	if s.Phase == domain.PhaseOfferingEmail {
		// A fresh update intent supersedes the email question.
		if len(s.PendingFields) > 0 {
			s.Phase = domain.PhaseCollectingUpdate
		} else {
			return m.handleEmailAnswer(s, ext)
		}
	}

	if !s.Validated {
		if ext.AmbiguousName {
			s.Expect(domain.ExpectSpelling, "")
			return msgSpellName
		}
		return m.collectAndValidate(ctx, s)
	}
	return m.collectAndApply(ctx, s)
}

// mergeIdentity folds extracted identity fragments into the session without
// discarding previously known fields. Stating a different employee ID or name
// after validation is an explicit identity change and reverts validation.
func (m *Manager) mergeIdentity(s *domain.Session, ext Extraction) {
	if ext.EmployeeID != "" {
		if s.Validated && !strings.EqualFold(ext.EmployeeID, s.EmployeeID) {
			m.logger.Info("identity change requested, revalidation required", "session_id", s.ID)
			s.ResetIdentity()
		}
		s.EmployeeID = ext.EmployeeID
	}
	if ext.FirstName != "" {
		if s.Validated && !strings.EqualFold(ext.FirstName, s.FirstName) {
			s.ResetIdentity()
		}
		s.FirstName = ext.FirstName
	}
	if ext.LastName != "" {
		if s.Validated && !strings.EqualFold(ext.LastName, s.LastName) {
			s.ResetIdentity()
		}
		s.LastName = ext.LastName
	}
}

// mergeIntents accumulates update intents and values. A field newly entering
// the pending set starts a fresh edit-loop negotiation.
func mergeIntents(s *domain.Session, ext Extraction) {
	for _, intent := range ext.Intents {
		known := false
		for _, f := range s.PendingFields {
			if f == intent.Field {
				known = true
				break
			}
		}
		if intent.HasValue {
			s.SetPendingValue(intent.Field, intent.Value, intent.Clear)
		} else {
			s.AddPendingField(intent.Field)
		}
		if !known {
			s.EditLoops = 0
		}
	}
}

func (m *Manager) collectAndValidate(ctx context.Context, s *domain.Session) string {
	if s.Expecting == domain.ExpectSpelling && (s.FirstName != "" || s.LastName != "") {
		s.Expect(domain.ExpectNothing, "")
	}

	if !s.IdentityComplete() {
		return m.askIdentity(s)
	}
	s.Expect(domain.ExpectNothing, "")
	s.Phase = domain.PhaseValidating

	result, err := m.validateWithRetry(ctx, s)
	switch {
	case err == nil && result.IsValid:
		s.MarkValidated()
		m.logger.Info("identity validated", "session_id", s.ID, "employee_id", s.EmployeeID)
		reply := validatedReply(s.Identity.FirstName)
		if len(s.PendingFields) > 0 {
			// Intents stated before validation are acted on immediately,
			// without re-confirmation.
			return reply + " " + m.collectAndApply(ctx, s)
		}
		s.Expect(domain.ExpectFieldPick, "")
		return reply + " " + askWhichField()

	case err == nil:
		s.ValidationAttempts++
		m.logger.Info("identity validation failed",
			"session_id", s.ID,
			"attempt", s.ValidationAttempts,
			"message", result.ValidationMessage,
		)
		if s.ValidationAttempts >= maxValidationAttempts {
			s.End()
			return msgValidationExhausted
		}
		suspect := m.suspectField(s, result.ValidationMessage)
		return validationFailedReply(result.ValidationMessage, suspect)

	case tools.IsClientInput(err):
		// Reported, never silently retried, and no attempt slot is consumed.
		return correctiveReply(backendMessage(err))

	case tools.IsRateLimited(err):
		s.End()
		return msgRateLimited

	default:
		s.End()
		return msgBackendTrouble
	}
}

// suspectField picks the most likely incorrect identity field from the
// backend's validation message and arms the matching expectation.
func (m *Manager) suspectField(s *domain.Session, message string) string {
	if strings.Contains(strings.ToLower(message), "name") {
		s.Expect(domain.ExpectSpelling, "")
		return "first and last name; please spell them out if needed"
	}
	s.Expect(domain.ExpectEmployeeID, "")
	return "employee ID"
}

func (m *Manager) askIdentity(s *domain.Session) string {
	missing := s.MissingIdentity()

	switch {
	case s.EmployeeID == "" && s.FirstName != "" && s.LastName != "":
		s.Expect(domain.ExpectEmployeeID, "")
	case s.EmployeeID != "" && s.FirstName == "" && s.LastName != "":
		s.Expect(domain.ExpectFirstName, "")
	case s.EmployeeID != "" && s.FirstName != "" && s.LastName == "":
		s.Expect(domain.ExpectLastName, "")
	default:
		s.Expect(domain.ExpectNothing, "")
	}

	if !s.Greeted {
		s.Greeted = true
		return greetingAsk(missing)
	}
	return followUpAsk(missing)
}

func (m *Manager) validateWithRetry(ctx context.Context, s *domain.Session) (ports.ValidateResult, error) {
	req := ports.ValidateRequest{
		EmployeeID: s.EmployeeID,
		FirstName:  s.FirstName,
		LastName:   s.LastName,
	}
	result, err := m.validator.Validate(ctx, req)
	if tools.IsTransient(err) || tools.IsRateLimited(err) {
		m.logger.Warn("validation call failed, retrying once", "session_id", s.ID, "error", err)
		result, err = m.validator.Validate(ctx, req)
	}
	return result, err
}

func (m *Manager) collectAndApply(ctx context.Context, s *domain.Session) string {
	s.Phase = domain.PhaseCollectingUpdate

	if len(s.PendingFields) == 0 {
		s.Expect(domain.ExpectFieldPick, "")
		return askWhichField()
	}

	for _, f := range s.PendingFields {
		if !s.HasPendingValue(f) {
			s.Expect(domain.ExpectValue, f)
			return askValue(f)
		}
	}
	s.Expect(domain.ExpectNothing, "")

	batch := append([]domain.Field(nil), s.PendingFields...)
	changes := make(map[domain.Field]string, len(batch))
	for _, f := range batch {
		changes[f] = s.PendingValues[f]
	}

	result, err := m.updateWithRetry(ctx, s, changes)
	switch {
	case err == nil && result.RowsUpdated >= 1:
		m.logger.Info("profile updated",
			"session_id", s.ID,
			"employee_id", s.Identity.EmployeeID,
			"rows_updated", result.RowsUpdated,
		)
		reply := updateSuccessReply(batch, changes)
		for _, f := range batch {
			s.RemovePendingField(f)
		}
		s.EditLoops = 0
		s.Phase = domain.PhaseOfferingEmail
		s.Expect(domain.ExpectEmailReply, "")
		return reply

	case err == nil:
		// rowsUpdated == 0: no effective change.
		return m.offerEditLoop(s, batch, noOpReply(batch))

	case tools.IsClientInput(err):
		// A restatement after a rejected update consumes an edit-loop slot.
		return m.offerEditLoop(s, batch, correctiveReply(backendMessage(err)))

	case tools.IsRateLimited(err):
		s.End()
		return msgRateLimited

	default:
		s.End()
		return msgBackendTrouble
	}
}

// offerEditLoop keeps the batch's fields pending but drops their values so the
// user can supply new ones, ending the session once the loop budget is spent.
func (m *Manager) offerEditLoop(s *domain.Session, batch []domain.Field, reply string) string {
	if s.EditLoops >= maxEditLoops {
		s.End()
		return msgEditLoopsExhausted
	}
	s.EditLoops++
	for _, f := range batch {
		delete(s.PendingValues, f)
		delete(s.PendingClears, f)
	}
	s.Expect(domain.ExpectValue, s.PendingFields[0])
	return reply
}

func (m *Manager) updateWithRetry(ctx context.Context, s *domain.Session, changes map[domain.Field]string) (ports.UpdateResult, error) {
	req := ports.UpdateRequest{
		EmployeeID: s.Identity.EmployeeID,
		Changes:    changes,
	}
	result, err := m.updater.Update(ctx, req)
	if tools.IsTransient(err) || tools.IsRateLimited(err) {
		m.logger.Warn("update call failed, retrying once", "session_id", s.ID, "error", err)
		result, err = m.updater.Update(ctx, req)
	}
	return result, err
}

func (m *Manager) handleEmailAnswer(s *domain.Session, ext Extraction) string {
	if ext.YesNo == nil {
		return "Would you like me to send a confirmation email? Please answer yes or no."
	}
	s.End()
	if *ext.YesNo {
		return closingWithEmail
	}
	return closingWithoutEmail
}

func backendMessage(err error) string {
	var be *tools.BackendError
	if errors.As(err, &be) {
		return be.Message
	}
	return ""
}
