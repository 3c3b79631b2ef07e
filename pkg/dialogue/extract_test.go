package dialogue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empassist/empassist/pkg/domain"
)

func blankSession() *domain.Session {
	return domain.NewSession("x", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
}

func TestExtractEmployeeID(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labelled", "my employee id is EMP01012", "EMP01012"},
		{"short label", "id: emp01012", "EMP01012"},
		{"emp id variant", "emp id EMP-7-X42", "EMP-7-X42"},
		{"bare token", "it's EMP01012 I think", "EMP01012"},
		{"lowercased input", "my id is emp01012", "EMP01012"},
		{"trailing punctuation", "employee id EMP01012.", "EMP01012"},
		{"absent", "hello there", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := Extract(tt.text, blankSession())
			assert.Equal(t, tt.want, ext.EmployeeID)
		})
	}
}

func TestExtractNames(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		first     string
		last      string
		ambiguous bool
	}{
		{"my name is", "my name is John Smith", "John", "Smith", false},
		{"i am", "I am Jane Doe", "Jane", "Doe", false},
		{"contraction", "I'm Jane Doe", "Jane", "Doe", false},
		{"single token", "my name is Cher", "Cher", "", false},
		{"middle name ignored", "my name is John Quincy Adams", "John", "Adams", false},
		{"honorific stripped", "my name is Mr. John Smith", "John", "Smith", false},
		{"filler stripped", "my name is uh John um Smith", "John", "Smith", false},
		{"you know pair stripped", "my name is John you know Smith", "John", "Smith", false},
		{"hyphenated", "my name is Mary-Jane Watson-Parker", "Mary-Jane", "Watson-Parker", false},
		{"apostrophe", "my name is Conor O'Brien", "Conor", "O'Brien", false},
		{"four parts ambiguous", "my name is Juan Carlos de la Vega", "", "", true},
		{"explicit slots", "first name John, last name Smith", "John", "Smith", false},
		{"i am plus verb is not a name", "I am moving next month", "", "", false},
		{"trailing clause cut", "my name is John Smith and my id is EMP01012", "John", "Smith", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := Extract(tt.text, blankSession())
			assert.Equal(t, tt.first, ext.FirstName)
			assert.Equal(t, tt.last, ext.LastName)
			assert.Equal(t, tt.ambiguous, ext.AmbiguousName)
		})
	}
}

func TestExtractSpelledName(t *testing.T) {
	s := blankSession()
	s.Expect(domain.ExpectSpelling, "")

	ext := Extract("J O H N, S M I T H", s)
	assert.Equal(t, "John", ext.FirstName)
	assert.Equal(t, "Smith", ext.LastName)

	ext = Extract("B R I A N and P H I L L I P S", s)
	assert.Equal(t, "Brian", ext.FirstName)
	assert.Equal(t, "Phillips", ext.LastName)

	// A plain restatement is accepted in place of a spelling.
	ext = Extract("John Smith", s)
	assert.Equal(t, "John", ext.FirstName)
	assert.Equal(t, "Smith", ext.LastName)
}

func TestExtractUpdateIntents(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Intent
	}{
		{
			name: "address with value",
			text: "please update my address to 1 Main Street, Springfield",
			want: []Intent{{Field: domain.FieldAddress, Value: "1 Main Street, Springfield", HasValue: true}},
		},
		{
			name: "department with value",
			text: "change my department to Finance",
			want: []Intent{{Field: domain.FieldDepartment, Value: "Finance", HasValue: true}},
		},
		{
			name: "move to department",
			text: "move my dept to Engineering",
			want: []Intent{{Field: domain.FieldDepartment, Value: "Engineering", HasValue: true}},
		},
		{
			name: "job title with value",
			text: "set my job title to Senior Engineer",
			want: []Intent{{Field: domain.FieldJobTitle, Value: "Senior Engineer", HasValue: true}},
		},
		{
			name: "mention without value",
			text: "I need to change my address",
			want: []Intent{{Field: domain.FieldAddress}},
		},
		{
			name: "clear address",
			text: "please remove my address",
			want: []Intent{{Field: domain.FieldAddress, HasValue: true, Clear: true}},
		},
		{
			name: "set to blank is a clear",
			text: "set my department to blank",
			want: []Intent{{Field: domain.FieldDepartment, HasValue: true, Clear: true}},
		},
		{
			name: "two fields one verb",
			text: "update my address to 5 Oak Avenue and my department to Finance",
			want: []Intent{
				{Field: domain.FieldAddress, Value: "5 Oak Avenue", HasValue: true},
				{Field: domain.FieldDepartment, Value: "Finance", HasValue: true},
			},
		},
		{
			name: "quoted value unwrapped",
			text: `set my job title to "Staff Engineer"`,
			want: []Intent{{Field: domain.FieldJobTitle, Value: "Staff Engineer", HasValue: true}},
		},
		{
			name: "mention without an update verb is ignored",
			text: "what department am I in",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := Extract(tt.text, blankSession())
			assert.Equal(t, tt.want, ext.Intents)
		})
	}
}

func TestExtractExpectedValue(t *testing.T) {
	s := blankSession()
	s.Validated = true
	s.Phase = domain.PhaseCollectingUpdate
	s.Expect(domain.ExpectValue, domain.FieldDepartment)

	ext := Extract("Finance", s)
	require.Len(t, ext.Intents, 1)
	assert.Equal(t, Intent{Field: domain.FieldDepartment, Value: "Finance", HasValue: true}, ext.Intents[0])

	ext = Extract("it's Finance", s)
	require.Len(t, ext.Intents, 1)
	assert.Equal(t, "Finance", ext.Intents[0].Value)

	ext = Extract("blank", s)
	require.Len(t, ext.Intents, 1)
	assert.True(t, ext.Intents[0].Clear)

	// An explicit statement about another field overrides the expectation.
	ext = Extract("actually update my address to 9 Elm Road", s)
	require.Len(t, ext.Intents, 1)
	assert.Equal(t, domain.FieldAddress, ext.Intents[0].Field)
	assert.Equal(t, "9 Elm Road", ext.Intents[0].Value)
}

func TestExtractBareAnswers(t *testing.T) {
	s := blankSession()
	s.Expect(domain.ExpectEmployeeID, "")
	ext := Extract("EMP01012", s)
	assert.Equal(t, "EMP01012", ext.EmployeeID)

	s = blankSession()
	s.Expect(domain.ExpectFirstName, "")
	ext = Extract("Brian", s)
	assert.Equal(t, "Brian", ext.FirstName)

	s = blankSession()
	s.Expect(domain.ExpectLastName, "")
	ext = Extract("Phillips", s)
	assert.Equal(t, "Phillips", ext.LastName)

	// An unprompted short name during identity collection is taken as one.
	s = blankSession()
	ext = Extract("Brian Phillips", s)
	assert.Equal(t, "Brian", ext.FirstName)
	assert.Equal(t, "Phillips", ext.LastName)

	// Greeting words never become names.
	s = blankSession()
	ext = Extract("good morning", s)
	assert.Empty(t, ext.FirstName)
	assert.Empty(t, ext.LastName)
}

func TestExtractYesNo(t *testing.T) {
	yes := func(text string) {
		ext := Extract(text, blankSession())
		require.NotNil(t, ext.YesNo, text)
		assert.True(t, *ext.YesNo, text)
	}
	no := func(text string) {
		ext := Extract(text, blankSession())
		require.NotNil(t, ext.YesNo, text)
		assert.False(t, *ext.YesNo, text)
	}
	unclear := func(text string) {
		ext := Extract(text, blankSession())
		assert.Nil(t, ext.YesNo, text)
	}

	yes("yes")
	yes("Yes, please!")
	yes("sure")
	no("no")
	no("no thanks")
	no("nope")
	unclear("maybe later")
	unclear("can you repeat that")
}
