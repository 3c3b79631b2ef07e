package dialogue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empassist/empassist/pkg/domain"
	"github.com/empassist/empassist/pkg/ports"
	"github.com/empassist/empassist/pkg/tools"
)

type validateOutcome struct {
	result ports.ValidateResult
	err    error
}

type fakeValidator struct {
	outcomes []validateOutcome
	calls    []ports.ValidateRequest
}

func (f *fakeValidator) Validate(_ context.Context, req ports.ValidateRequest) (ports.ValidateResult, error) {
	f.calls = append(f.calls, req)
	if len(f.outcomes) == 0 {
		return ports.ValidateResult{}, &tools.BackendError{Kind: tools.KindTransient, Operation: "validate", Message: "no outcome scripted"}
	}
	out := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	return out.result, out.err
}

type updateOutcome struct {
	result ports.UpdateResult
	err    error
}

type fakeUpdater struct {
	outcomes []updateOutcome
	calls    []ports.UpdateRequest
}

func (f *fakeUpdater) Update(_ context.Context, req ports.UpdateRequest) (ports.UpdateResult, error) {
	f.calls = append(f.calls, req)
	if len(f.outcomes) == 0 {
		return ports.UpdateResult{}, &tools.BackendError{Kind: tools.KindTransient, Operation: "update", Message: "no outcome scripted"}
	}
	out := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	return out.result, out.err
}

func validOnce() validateOutcome {
	return validateOutcome{result: ports.ValidateResult{IsValid: true}}
}

func invalidOnce(msg string) validateOutcome {
	return validateOutcome{result: ports.ValidateResult{ValidationMessage: msg}}
}

func backendErr(kind tools.Kind, msg string) *tools.BackendError {
	return &tools.BackendError{Kind: kind, Operation: "test", Message: msg}
}

func newTestManager(v *fakeValidator, u *fakeUpdater) *Manager {
	return New(v, u, WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}))
}

func newTestSession() *domain.Session {
	return domain.NewSession("sess-1", time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC))
}

func TestRespondGreetsAndAsksForIdentity(t *testing.T) {
	m := newTestManager(&fakeValidator{}, &fakeUpdater{})
	s := newTestSession()

	reply := m.Respond(context.Background(), s, "Hello")

	assert.Contains(t, reply, "verify your identity")
	assert.Contains(t, reply, "employee ID")
	assert.True(t, s.Greeted)
	assert.False(t, s.Validated)
}

func TestRespondCollectsIdentityPiecemeal(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{validOnce()}}
	m := newTestManager(v, &fakeUpdater{})
	s := newTestSession()
	ctx := context.Background()

	m.Respond(ctx, s, "Hi there")
	reply := m.Respond(ctx, s, "my employee id is EMP01012")
	assert.Contains(t, reply, "first name")
	assert.Equal(t, "EMP01012", s.EmployeeID)

	reply = m.Respond(ctx, s, "my name is John Smith")
	require.Len(t, v.calls, 1)
	assert.Equal(t, ports.ValidateRequest{
		EmployeeID: "EMP01012",
		FirstName:  "John",
		LastName:   "Smith",
	}, v.calls[0])
	assert.Contains(t, reply, "verified")
	assert.Contains(t, reply, "What would you like to update?")
	assert.True(t, s.Validated)
}

func TestRespondValidatesAndAppliesInOneTurn(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{validOnce()}}
	u := &fakeUpdater{outcomes: []updateOutcome{{result: ports.UpdateResult{RowsUpdated: 1}}}}
	m := newTestManager(v, u)
	s := newTestSession()

	reply := m.Respond(context.Background(), s,
		"Hi, I'm John Smith, my employee id is EMP01012, please update my address to 1 Main Street, Springfield")

	require.Len(t, u.calls, 1)
	assert.Equal(t, "EMP01012", u.calls[0].EmployeeID)
	assert.Equal(t, "1 Main Street, Springfield", u.calls[0].Changes[domain.FieldAddress])
	assert.Contains(t, reply, "verified")
	assert.Contains(t, reply, "updated your address")
	assert.Contains(t, reply, "confirmation email")
	assert.Equal(t, domain.PhaseOfferingEmail, s.Phase)
}

func TestRespondThreeFailedValidationsEndSession(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{
		invalidOnce("employee ID not found"),
		invalidOnce("employee ID not found"),
		invalidOnce("employee ID not found"),
	}}
	m := newTestManager(v, &fakeUpdater{})
	s := newTestSession()
	ctx := context.Background()

	reply := m.Respond(ctx, s, "I'm John Smith, id EMP00001")
	assert.Contains(t, reply, "Validation failed")
	assert.Equal(t, 1, s.ValidationAttempts)

	reply = m.Respond(ctx, s, "EMP00002")
	assert.Contains(t, reply, "Validation failed")
	assert.Equal(t, 2, s.ValidationAttempts)

	reply = m.Respond(ctx, s, "EMP00003")
	assert.Equal(t, msgValidationExhausted, reply)
	assert.True(t, s.Ended())

	reply = m.Respond(ctx, s, "EMP00004")
	assert.Equal(t, msgSessionEnded, reply)
	require.Len(t, v.calls, 3)
}

func TestRespondNameMismatchAsksForSpelling(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{
		invalidOnce("name does not match our records"),
		validOnce(),
	}}
	m := newTestManager(v, &fakeUpdater{})
	s := newTestSession()
	ctx := context.Background()

	reply := m.Respond(ctx, s, "I'm Jon Smit, employee id EMP01012")
	assert.Contains(t, reply, "spell")
	assert.Equal(t, domain.ExpectSpelling, s.Expecting)

	reply = m.Respond(ctx, s, "J O H N, S M I T H")
	require.Len(t, v.calls, 2)
	assert.Equal(t, "John", v.calls[1].FirstName)
	assert.Equal(t, "Smith", v.calls[1].LastName)
	assert.Contains(t, reply, "verified")
}

func TestRespondRetriesTransientValidationOnce(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{
		{err: backendErr(tools.KindTransient, "bad gateway")},
		validOnce(),
	}}
	m := newTestManager(v, &fakeUpdater{})
	s := newTestSession()

	reply := m.Respond(context.Background(), s, "I'm John Smith, id EMP01012")

	require.Len(t, v.calls, 2)
	assert.Contains(t, reply, "verified")
	assert.True(t, s.Validated)
}

func TestRespondPersistentTransientFailureEndsSession(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{
		{err: backendErr(tools.KindTransient, "bad gateway")},
		{err: backendErr(tools.KindTransient, "bad gateway")},
	}}
	m := newTestManager(v, &fakeUpdater{})
	s := newTestSession()

	reply := m.Respond(context.Background(), s, "I'm John Smith, id EMP01012")

	assert.Equal(t, msgBackendTrouble, reply)
	assert.True(t, s.Ended())
	assert.Zero(t, s.ValidationAttempts)
}

func TestRespondPersistentRateLimitEndsSession(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{
		{err: backendErr(tools.KindRateLimited, "too many requests")},
		{err: backendErr(tools.KindRateLimited, "too many requests")},
	}}
	m := newTestManager(v, &fakeUpdater{})
	s := newTestSession()

	reply := m.Respond(context.Background(), s, "I'm John Smith, id EMP01012")

	assert.Equal(t, msgRateLimited, reply)
	assert.True(t, s.Ended())
}

func TestRespondClientInputErrorDoesNotConsumeAttempt(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{
		{err: backendErr(tools.KindClientInput, "employee_id exceeds 64 characters")},
		validOnce(),
	}}
	m := newTestManager(v, &fakeUpdater{})
	s := newTestSession()
	ctx := context.Background()

	reply := m.Respond(ctx, s, "I'm John Smith, id EMP01012")
	assert.Contains(t, reply, "couldn't submit")
	assert.Contains(t, reply, "exceeds 64 characters")
	assert.Zero(t, s.ValidationAttempts)
	assert.False(t, s.Ended())

	reply = m.Respond(ctx, s, "my id is EMP01012")
	assert.Contains(t, reply, "verified")
}

func TestRespondValidatedSessionIsIdempotentToRestatement(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{validOnce()}}
	m := newTestManager(v, &fakeUpdater{})
	s := newTestSession()
	ctx := context.Background()

	m.Respond(ctx, s, "I'm John Smith, id EMP01012")
	require.True(t, s.Validated)

	reply := m.Respond(ctx, s, "my name is john smith and my employee id is emp01012")

	require.Len(t, v.calls, 1, "restating the same identity must not revalidate")
	assert.True(t, s.Validated)
	assert.Contains(t, reply, "What would you like to update?")
}

func TestRespondNewIdentityAfterValidationRevalidates(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{validOnce(), validOnce()}}
	m := newTestManager(v, &fakeUpdater{})
	s := newTestSession()
	ctx := context.Background()

	m.Respond(ctx, s, "I'm John Smith, id EMP01012")
	require.True(t, s.Validated)

	reply := m.Respond(ctx, s, "actually my employee id is EMP99999")

	require.Len(t, v.calls, 2)
	assert.Equal(t, "EMP99999", v.calls[1].EmployeeID)
	assert.Contains(t, reply, "verified")
}

func TestRespondAsksForValueThenApplies(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{validOnce()}}
	u := &fakeUpdater{outcomes: []updateOutcome{{result: ports.UpdateResult{RowsUpdated: 1}}}}
	m := newTestManager(v, u)
	s := newTestSession()
	ctx := context.Background()

	m.Respond(ctx, s, "I'm John Smith, id EMP01012")
	reply := m.Respond(ctx, s, "I'd like to change my department")
	assert.Contains(t, reply, "department")
	assert.Equal(t, domain.ExpectValue, s.Expecting)
	assert.Equal(t, domain.FieldDepartment, s.ExpectingField)

	reply = m.Respond(ctx, s, "Finance")
	require.Len(t, u.calls, 1)
	assert.Equal(t, map[domain.Field]string{domain.FieldDepartment: "Finance"}, u.calls[0].Changes)
	assert.Contains(t, reply, "updated your department to: Finance")
}

func TestRespondClearFieldSendsEmptyValue(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{validOnce()}}
	u := &fakeUpdater{outcomes: []updateOutcome{{result: ports.UpdateResult{RowsUpdated: 1}}}}
	m := newTestManager(v, u)
	s := newTestSession()
	ctx := context.Background()

	m.Respond(ctx, s, "I'm John Smith, id EMP01012")
	reply := m.Respond(ctx, s, "please clear my address")

	require.Len(t, u.calls, 1)
	value, present := u.calls[0].Changes[domain.FieldAddress]
	require.True(t, present)
	assert.Empty(t, value)
	assert.Contains(t, reply, "cleared your address")
}

func TestRespondEmailOfferYes(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{validOnce()}}
	u := &fakeUpdater{outcomes: []updateOutcome{{result: ports.UpdateResult{RowsUpdated: 1}}}}
	m := newTestManager(v, u)
	s := newTestSession()
	ctx := context.Background()

	m.Respond(ctx, s, "I'm John Smith, id EMP01012, set my job title to Senior Engineer")
	require.Equal(t, domain.PhaseOfferingEmail, s.Phase)

	reply := m.Respond(ctx, s, "yes please")
	assert.Equal(t, closingWithEmail, reply)
	assert.True(t, s.Ended())
}

func TestRespondEmailOfferNo(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{validOnce()}}
	u := &fakeUpdater{outcomes: []updateOutcome{{result: ports.UpdateResult{RowsUpdated: 1}}}}
	m := newTestManager(v, u)
	s := newTestSession()
	ctx := context.Background()

	m.Respond(ctx, s, "I'm John Smith, id EMP01012, set my job title to Senior Engineer")
	reply := m.Respond(ctx, s, "no thanks")
	assert.Equal(t, closingWithoutEmail, reply)
	assert.True(t, s.Ended())
}

func TestRespondEmailOfferUnclearAnswerReasks(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{validOnce()}}
	u := &fakeUpdater{outcomes: []updateOutcome{{result: ports.UpdateResult{RowsUpdated: 1}}}}
	m := newTestManager(v, u)
	s := newTestSession()
	ctx := context.Background()

	m.Respond(ctx, s, "I'm John Smith, id EMP01012, set my job title to Senior Engineer")
	reply := m.Respond(ctx, s, "hmm what do you mean")
	assert.Contains(t, reply, "yes or no")
	assert.False(t, s.Ended())
}

func TestRespondNewIntentSupersedesEmailOffer(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{validOnce()}}
	u := &fakeUpdater{outcomes: []updateOutcome{
		{result: ports.UpdateResult{RowsUpdated: 1}},
		{result: ports.UpdateResult{RowsUpdated: 1}},
	}}
	m := newTestManager(v, u)
	s := newTestSession()
	ctx := context.Background()

	m.Respond(ctx, s, "I'm John Smith, id EMP01012, set my job title to Senior Engineer")
	require.Equal(t, domain.PhaseOfferingEmail, s.Phase)

	reply := m.Respond(ctx, s, "also update my department to Finance")
	require.Len(t, u.calls, 2)
	assert.Equal(t, map[domain.Field]string{domain.FieldDepartment: "Finance"}, u.calls[1].Changes)
	assert.Contains(t, reply, "updated your department")
}

func TestRespondNoOpUpdateOffersEditLoop(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{validOnce()}}
	u := &fakeUpdater{outcomes: []updateOutcome{
		{result: ports.UpdateResult{RowsUpdated: 0}},
		{result: ports.UpdateResult{RowsUpdated: 1}},
	}}
	m := newTestManager(v, u)
	s := newTestSession()
	ctx := context.Background()

	reply := m.Respond(ctx, s, "I'm John Smith, id EMP01012, change my department to Finance")
	assert.Contains(t, reply, "No change was applied")
	assert.Equal(t, 1, s.EditLoops)
	assert.Equal(t, domain.ExpectValue, s.Expecting)

	reply = m.Respond(ctx, s, "Engineering")
	require.Len(t, u.calls, 2)
	assert.Equal(t, "Engineering", u.calls[1].Changes[domain.FieldDepartment])
	assert.Contains(t, reply, "updated your department to: Engineering")
	assert.Zero(t, s.EditLoops)
}

func TestRespondEditLoopBudgetEndsSession(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{validOnce()}}
	u := &fakeUpdater{outcomes: []updateOutcome{
		{result: ports.UpdateResult{RowsUpdated: 0}},
		{result: ports.UpdateResult{RowsUpdated: 0}},
		{result: ports.UpdateResult{RowsUpdated: 0}},
	}}
	m := newTestManager(v, u)
	s := newTestSession()
	ctx := context.Background()

	m.Respond(ctx, s, "I'm John Smith, id EMP01012, change my department to Finance")
	assert.Equal(t, 1, s.EditLoops)

	m.Respond(ctx, s, "Finance")
	assert.Equal(t, 2, s.EditLoops)

	reply := m.Respond(ctx, s, "Finance")
	assert.Equal(t, msgEditLoopsExhausted, reply)
	assert.True(t, s.Ended())
}

func TestRespondRejectedUpdateConsumesEditLoop(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{validOnce()}}
	u := &fakeUpdater{outcomes: []updateOutcome{
		{err: backendErr(tools.KindClientInput, "address exceeds 250 characters")},
		{result: ports.UpdateResult{RowsUpdated: 1}},
	}}
	m := newTestManager(v, u)
	s := newTestSession()
	ctx := context.Background()

	reply := m.Respond(ctx, s, "I'm John Smith, id EMP01012, update my address to 1 Main Street")
	assert.Contains(t, reply, "exceeds 250 characters")
	assert.Equal(t, 1, s.EditLoops)
	assert.False(t, s.Ended())

	reply = m.Respond(ctx, s, "2 Short Lane")
	require.Len(t, u.calls, 2)
	assert.Contains(t, reply, "updated your address to: 2 Short Lane")
}

func TestRespondUpdateBackendFailureEndsSession(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{validOnce()}}
	u := &fakeUpdater{outcomes: []updateOutcome{
		{err: backendErr(tools.KindTransient, "service unavailable")},
		{err: backendErr(tools.KindTransient, "service unavailable")},
	}}
	m := newTestManager(v, u)
	s := newTestSession()

	reply := m.Respond(context.Background(), s, "I'm John Smith, id EMP01012, update my address to 1 Main Street")

	require.Len(t, u.calls, 2, "one retry before giving up")
	assert.Equal(t, msgBackendTrouble, reply)
	assert.True(t, s.Ended())
}

func TestRespondMultiFieldUpdateInOneTurn(t *testing.T) {
	v := &fakeValidator{outcomes: []validateOutcome{validOnce()}}
	u := &fakeUpdater{outcomes: []updateOutcome{{result: ports.UpdateResult{RowsUpdated: 1}}}}
	m := newTestManager(v, u)
	s := newTestSession()
	ctx := context.Background()

	m.Respond(ctx, s, "I'm John Smith, id EMP01012")
	reply := m.Respond(ctx, s, "update my address to 5 Oak Avenue and my department to Finance")

	require.Len(t, u.calls, 1)
	assert.Equal(t, map[domain.Field]string{
		domain.FieldAddress:    "5 Oak Avenue",
		domain.FieldDepartment: "Finance",
	}, u.calls[0].Changes)
	assert.Contains(t, reply, "updated your address to: 5 Oak Avenue")
	assert.Contains(t, reply, "updated your department to: Finance")
}

func TestRespondAmbiguousNameAsksForSpelling(t *testing.T) {
	m := newTestManager(&fakeValidator{}, &fakeUpdater{})
	s := newTestSession()

	reply := m.Respond(context.Background(), s, "my name is Juan Carlos de la Vega Martinez")

	assert.Equal(t, msgSpellName, reply)
	assert.Equal(t, domain.ExpectSpelling, s.Expecting)
}
