package domain

import "time"

// Phase identifies where a session currently rests in the dialogue flow.
type Phase string

const (
	// PhaseCollectingIdentity gathers employee_id, first_name and last_name.
	PhaseCollectingIdentity Phase = "collecting_identity"

	// PhaseValidating means identity was submitted at least once and the
	// session is negotiating a corrected field after a failed check.
	PhaseValidating Phase = "validating"

	// PhaseCollectingUpdate means identity is confirmed and the session is
	// gathering fields and values to change.
	PhaseCollectingUpdate Phase = "collecting_update"

	// PhaseOfferingEmail means an update succeeded and the session is waiting
	// for a yes/no on the confirmation email.
	PhaseOfferingEmail Phase = "offering_email"

	// PhaseEnded is terminal. No further tool calls happen on this session.
	PhaseEnded Phase = "ended"
)

// Field is one of the updatable profile fields.
type Field string

const (
	FieldAddress    Field = "address"
	FieldDepartment Field = "department"
	FieldJobTitle   Field = "job_title"
)

// UpdatableFields lists all fields the update operation accepts, in the order
// prompts should mention them.
var UpdatableFields = []Field{FieldAddress, FieldDepartment, FieldJobTitle}

// Expectation marks which slot the next user utterance is expected to fill.
// It lets the extractor treat a bare reply ("Phillips", "123 Main St") as the
// answer to the previous question instead of guessing.
type Expectation string

const (
	ExpectNothing    Expectation = ""
	ExpectEmployeeID Expectation = "employee_id"
	ExpectFirstName  Expectation = "first_name"
	ExpectLastName   Expectation = "last_name"
	ExpectSpelling   Expectation = "spelling"
	ExpectFieldPick  Expectation = "field_pick"
	ExpectValue      Expectation = "value"
	ExpectEmailReply Expectation = "email_reply"
)

// Identity is the validated employee identity. It is set if and only if the
// session's Validated flag is true.
type Identity struct {
	EmployeeID string `json:"employee_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// Session is the unit of continuity for one user's interaction. All dialogue
// decisions consult this record before asking the user anything, which is what
// makes the flow idempotent to re-statement.
type Session struct {
	ID    string `json:"id"`
	Phase Phase  `json:"phase"`

	// Identity slots collected so far. Promoted into Identity on successful
	// validation.
	EmployeeID string `json:"employee_id,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`

	Validated bool      `json:"validated"`
	Identity  *Identity `json:"identity,omitempty"`

	// PendingFields accumulates update intents in the order they were stated.
	// A field leaves the set only once applied or abandoned.
	PendingFields []Field          `json:"pending_fields,omitempty"`
	PendingValues map[Field]string `json:"pending_values,omitempty"`

	// PendingClears marks pending values that are explicit clear requests, so
	// an empty string survives the "value present" checks.
	PendingClears map[Field]bool `json:"pending_clears,omitempty"`

	ValidationAttempts int `json:"validation_attempts"`
	EditLoops          int `json:"edit_loops"`

	Expecting      Expectation `json:"expecting,omitempty"`
	ExpectingField Field       `json:"expecting_field,omitempty"`

	// Greeted records that the opening prompt was already delivered, so
	// follow-up turns ask only for what is still missing.
	Greeted bool `json:"greeted,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed holds the encrypted envelope written by the persistence
	// middleware. When set, every other field except ID is zero.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates a fresh session in the identity-collection phase.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:            id,
		Phase:         PhaseCollectingIdentity,
		PendingValues: make(map[Field]string),
		PendingClears: make(map[Field]bool),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Ended reports whether the session reached its terminal phase.
func (s *Session) Ended() bool {
	return s.Phase == PhaseEnded
}

// AddPendingField records an update intent. Adding an already-pending field is
// a no-op so re-statement never duplicates work.
func (s *Session) AddPendingField(f Field) {
	for _, existing := range s.PendingFields {
		if existing == f {
			return
		}
	}
	s.PendingFields = append(s.PendingFields, f)
}

// RemovePendingField drops a field once it has been applied or abandoned.
func (s *Session) RemovePendingField(f Field) {
	for i, existing := range s.PendingFields {
		if existing == f {
			s.PendingFields = append(s.PendingFields[:i], s.PendingFields[i+1:]...)
			break
		}
	}
	delete(s.PendingValues, f)
	delete(s.PendingClears, f)
}

// SetPendingValue stores a proposed value for a field, marking the field
// pending if it was not already.
func (s *Session) SetPendingValue(f Field, value string, clear bool) {
	s.AddPendingField(f)
	if s.PendingValues == nil {
		s.PendingValues = make(map[Field]string)
	}
	if s.PendingClears == nil {
		s.PendingClears = make(map[Field]bool)
	}
	s.PendingValues[f] = value
	if clear {
		s.PendingClears[f] = true
	} else {
		delete(s.PendingClears, f)
	}
}

// HasPendingValue reports whether a usable value exists for the field. An
// empty string counts only when it is an explicit clear.
func (s *Session) HasPendingValue(f Field) bool {
	v, ok := s.PendingValues[f]
	if !ok {
		return false
	}
	return v != "" || s.PendingClears[f]
}

// MissingIdentity returns the identity slots still unknown, in prompt order.
func (s *Session) MissingIdentity() []string {
	var missing []string
	if s.EmployeeID == "" {
		missing = append(missing, "employee ID")
	}
	if s.FirstName == "" {
		missing = append(missing, "first name")
	}
	if s.LastName == "" {
		missing = append(missing, "last name")
	}
	return missing
}

// IdentityComplete reports whether all three identity slots are known.
func (s *Session) IdentityComplete() bool {
	return s.EmployeeID != "" && s.FirstName != "" && s.LastName != ""
}

// MarkValidated promotes the collected slots into the confirmed identity.
func (s *Session) MarkValidated() {
	s.Validated = true
	s.Identity = &Identity{
		EmployeeID: s.EmployeeID,
		FirstName:  s.FirstName,
		LastName:   s.LastName,
	}
	s.Phase = PhaseCollectingUpdate
}

// ResetIdentity reverts validation after an explicit user-initiated identity
// change. Attempt counters are session-scoped and deliberately survive.
func (s *Session) ResetIdentity() {
	s.Validated = false
	s.Identity = nil
	s.Phase = PhaseCollectingIdentity
}

// End moves the session to its terminal phase and clears any expectation.
func (s *Session) End() {
	s.Phase = PhaseEnded
	s.Expecting = ExpectNothing
	s.ExpectingField = ""
}

// Expect records which slot the next utterance should fill.
func (s *Session) Expect(e Expectation, f Field) {
	s.Expecting = e
	s.ExpectingField = f
}

// Touch bumps the last-activity timestamp.
func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now
}
