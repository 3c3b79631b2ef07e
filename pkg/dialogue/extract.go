package dialogue

import (
	"regexp"
	"strings"

	"github.com/empassist/empassist/pkg/domain"
)

// Intent is one extracted update request: a field, optionally with a value.
type Intent struct {
	Field    domain.Field
	Value    string
	HasValue bool
	Clear    bool
}

// Extraction is everything the slot filler pulled out of one utterance.
type Extraction struct {
	EmployeeID string
	FirstName  string
	LastName   string

	// AmbiguousName is set when a stated name has too many parts to apply the
	// first/last heuristic safely. The manager asks the user to spell it out.
	AmbiguousName bool

	Intents []Intent
	YesNo   *bool
}

var (
	reEmployeeID   = regexp.MustCompile(`(?i)\b(?:employee\s*id|emp\s*id|id)\b[\s,:=]*(?:is\s+)?([A-Za-z0-9][A-Za-z0-9._-]{0,63})`)
	reBareEmpID    = regexp.MustCompile(`\b(EMP[0-9A-Za-z-]{3,})\b`)
	reFirstName    = regexp.MustCompile(`(?i)\bfirst\s*name\b[\s,:=]*(?:is\s+)?([A-Za-z][A-Za-z'’-]*)`)
	reLastName     = regexp.MustCompile(`(?i)\blast\s*name\b[\s,:=]*(?:is\s+)?([A-Za-z][A-Za-z'’-]*)`)
	reFullName     = regexp.MustCompile(`(?i)\bmy\s+name\s+is\s+([A-Za-z'’\-\. ]+)`)
	reIAm          = regexp.MustCompile(`(?i)\bi\s*(?:'|’)?\s*a?m\s+([A-Za-z'’\-\.]+(?:\s+[A-Za-z'’\-\.]+)?)\b`)
	reHonorific    = regexp.MustCompile(`(?i)^(?:mr|ms|mrs|mx|dr|prof)\.?$`)
	reNameToken    = regexp.MustCompile(`^[A-Za-z][A-Za-z'’-]*$`)
	reSingleLetter = regexp.MustCompile(`^[A-Za-z]$`)
)

// One value-capturing and one bare-mention pattern per updatable field.
var fieldPatterns = []struct {
	field   domain.Field
	value   *regexp.Regexp
	mention *regexp.Regexp
	clear   *regexp.Regexp
}{
	{
		field:   domain.FieldAddress,
		value:   regexp.MustCompile(`(?i)\b(?:(?:update|change|set)\s+(?:my\s+)?(?:home\s+)?address\s+(?:to|=|:)|(?:my\s+)?new\s+address\s+is|address\s*[:=])\s*(.+)$`),
		mention: regexp.MustCompile(`(?i)\baddress\b`),
		clear:   regexp.MustCompile(`(?i)\b(?:clear|remove|delete|erase)\s+(?:my\s+)?address\b|\bset\s+(?:my\s+)?address\s+to\s+(?:empty|blank|nothing)\b`),
	},
	{
		field:   domain.FieldDepartment,
		value:   regexp.MustCompile(`(?i)\b(?:(?:update|change|set|move)\s+(?:my\s+)?(?:department|dept)\s+(?:to|=|:)|(?:my\s+)?new\s+(?:department|dept)\s+is|(?:department|dept)\s*[:=])\s*(.+)$`),
		mention: regexp.MustCompile(`(?i)\b(?:department|dept)\b`),
		clear:   regexp.MustCompile(`(?i)\b(?:clear|remove|delete|erase)\s+(?:my\s+)?(?:department|dept)\b|\bset\s+(?:my\s+)?(?:department|dept)\s+to\s+(?:empty|blank|nothing)\b`),
	},
	{
		field:   domain.FieldJobTitle,
		value:   regexp.MustCompile(`(?i)\b(?:(?:update|change|set)\s+(?:my\s+)?(?:job\s*title|title|position)\s+(?:to|=|:)|(?:my\s+)?new\s+(?:job\s*title|title|position)\s+is|job\s*title\s*[:=])\s*(.+)$`),
		mention: regexp.MustCompile(`(?i)\b(?:job\s*title|title|position)\b`),
		clear:   regexp.MustCompile(`(?i)\b(?:clear|remove|delete|erase)\s+(?:my\s+)?(?:job\s*title|title|position)\b|\bset\s+(?:my\s+)?(?:job\s*title|title|position)\s+to\s+(?:empty|blank|nothing)\b`),
	},
}

// STT filler words ignored during name parsing. "you know" is handled as a
// pair in nameTokens.
var fillerWords = map[string]bool{
	"uh": true, "um": true, "please": true,
}

// nonNameWords are tokens that rule out treating an utterance as a bare name:
// greetings, acknowledgments and the verbs that show up in "I am ..." phrases.
var nonNameWords = map[string]bool{
	"hello": true, "hi": true, "hey": true, "good": true, "morning": true,
	"afternoon": true, "evening": true, "thanks": true, "thank": true,
	"sure": true, "ok": true, "okay": true, "yes": true, "no": true,
	"moving": true, "changing": true, "updating": true, "calling": true,
	"trying": true, "looking": true, "going": true, "here": true,
	"sorry": true, "not": true, "just": true, "new": true, "done": true,
}

var yesWords = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "sure": true, "ok": true,
	"okay": true, "y": true, "please": true, "absolutely": true, "correct": true,
}

var noWords = map[string]bool{
	"no": true, "nope": true, "n": true, "nah": true, "negative": true,
}

// Extract runs the rule-based slot filler over one utterance. The session is
// consulted only for its expectation, so a bare reply fills the slot the
// previous question asked about.
func Extract(text string, s *domain.Session) Extraction {
	var ext Extraction
	clean := strings.TrimSpace(text)
	if clean == "" {
		return ext
	}

	ext.YesNo = parseYesNo(clean)

	// Expectation-driven shortcuts run first: the whole utterance may be the
	// answer to the previous question.
	switch s.Expecting {
	case domain.ExpectValue:
		if intent, ok := expectedValueIntent(clean, s.ExpectingField); ok {
			ext.Intents = append(ext.Intents, intent)
			return ext
		}
	case domain.ExpectSpelling:
		if first, last, ok := assembleSpelledName(clean); ok {
			ext.FirstName, ext.LastName = first, last
			return ext
		}
	}

	if id := matchEmployeeID(clean); id != "" {
		ext.EmployeeID = id
	}
	if m := reFirstName.FindStringSubmatch(clean); m != nil {
		ext.FirstName = m[1]
	}
	if m := reLastName.FindStringSubmatch(clean); m != nil {
		ext.LastName = m[1]
	}
	if ext.FirstName == "" && ext.LastName == "" {
		if m := reFullName.FindStringSubmatch(clean); m != nil {
			applyNameHeuristic(&ext, m[1])
		} else if m := reIAm.FindStringSubmatch(clean); m != nil && looksLikeName(m[1]) {
			applyNameHeuristic(&ext, m[1])
		}
	}

	ext.Intents = append(ext.Intents, matchIntents(clean)...)

	// Bare answers to identity questions.
	if ext.EmployeeID == "" && ext.FirstName == "" && ext.LastName == "" && len(ext.Intents) == 0 {
		applyBareAnswer(&ext, clean, s)
	}

	return ext
}

func matchEmployeeID(text string) string {
	if m := reEmployeeID.FindStringSubmatch(text); m != nil {
		candidate := strings.Trim(m[1], ".,;")
		// "my id is EMP01012" must not capture the word "is" when the
		// optional verb was absorbed by the candidate group.
		if !strings.EqualFold(candidate, "is") {
			return strings.ToUpper(candidate)
		}
	}
	if m := reBareEmpID.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

// reClauseAnd splits "update my address to X and my department to Y" style
// utterances so each clause can be matched independently.
var reClauseAnd = regexp.MustCompile(`(?i)\s+and\s+my\s+`)

func matchIntents(text string) []Intent {
	clauses := reClauseAnd.Split(text, -1)
	for i := 1; i < len(clauses); i++ {
		clauses[i] = "my " + clauses[i]
	}
	// A leading verb distributes over later clauses that lack their own.
	verb := reUpdateVerb.FindString(clauses[0])

	byField := make(map[domain.Field]Intent)
	var order []domain.Field
	record := func(intent Intent) {
		existing, seen := byField[intent.Field]
		if !seen {
			order = append(order, intent.Field)
			byField[intent.Field] = intent
			return
		}
		if intent.HasValue && !existing.HasValue {
			byField[intent.Field] = intent
		}
	}

	for i, clause := range clauses {
		if i > 0 && verb != "" && !mentionsUpdate(clause) {
			clause = verb + " " + clause
		}
		for _, p := range fieldPatterns {
			if p.clear.MatchString(clause) {
				record(Intent{Field: p.field, HasValue: true, Clear: true})
				continue
			}
			if m := p.value.FindStringSubmatch(clause); m != nil {
				if value := sanitizeValue(m[1]); value != "" {
					record(Intent{Field: p.field, Value: value, HasValue: true})
					continue
				}
			}
			if p.mention.MatchString(clause) && mentionsUpdate(clause) {
				record(Intent{Field: p.field})
			}
		}
	}

	intents := make([]Intent, 0, len(order))
	for _, f := range order {
		intents = append(intents, byField[f])
	}
	return intents
}

var reUpdateVerb = regexp.MustCompile(`(?i)\b(?:update|change|set|modify|edit|correct|fix|move|new)\b`)

func mentionsUpdate(text string) bool {
	return reUpdateVerb.MatchString(text)
}

// expectedValueIntent treats the utterance as the value the previous question
// asked for, unless it clearly talks about something else.
func expectedValueIntent(text string, field domain.Field) (Intent, bool) {
	if field == "" {
		return Intent{}, false
	}
	// An explicit statement about a different field takes priority over the
	// expectation; fall through to general matching.
	for _, p := range fieldPatterns {
		if p.field != field && (p.value.MatchString(text) || p.clear.MatchString(text)) {
			return Intent{}, false
		}
	}

	lower := strings.ToLower(text)
	if lower == "empty" || lower == "blank" || lower == "nothing" || lower == "clear it" {
		return Intent{Field: field, HasValue: true, Clear: true}, true
	}

	value := text
	for _, prefix := range []string{"it's ", "it is ", "to ", "make it "} {
		if strings.HasPrefix(lower, prefix) {
			value = value[len(prefix):]
			break
		}
	}
	// The field's own value pattern may still be the cleanest capture
	// ("change it to X" vs "update my address to X").
	for _, p := range fieldPatterns {
		if p.field == field {
			if m := p.value.FindStringSubmatch(text); m != nil {
				value = m[1]
			}
		}
	}

	value = sanitizeValue(value)
	if value == "" {
		return Intent{}, false
	}
	return Intent{Field: field, Value: value, HasValue: true}, true
}

// applyNameHeuristic implements the default name parsing rules: strip
// honorifics, first token is the first name, last token is the last name,
// middles ignored. Four or more parts is ambiguous.
func applyNameHeuristic(ext *Extraction, raw string) {
	// A trailing clause ("... and my employee id is") is not part of the name.
	for _, sep := range []string{" and ", ","} {
		if idx := indexFold(raw, sep); idx >= 0 {
			raw = raw[:idx]
		}
	}
	tokens := nameTokens(raw)
	switch {
	case len(tokens) == 0:
	case len(tokens) == 1:
		ext.FirstName = tokens[0]
	case len(tokens) <= 3:
		ext.FirstName = tokens[0]
		ext.LastName = tokens[len(tokens)-1]
	default:
		ext.AmbiguousName = true
	}
}

func nameTokens(raw string) []string {
	var tokens []string
	words := strings.Fields(raw)
	for i := 0; i < len(words); i++ {
		w := strings.Trim(words[i], ".,;!?")
		lower := strings.ToLower(w)
		if w == "" || reHonorific.MatchString(w) || fillerWords[lower] {
			continue
		}
		// "you know" filler pair
		if lower == "you" && i+1 < len(words) && strings.ToLower(strings.Trim(words[i+1], ".,;!?")) == "know" {
			i++
			continue
		}
		if !reNameToken.MatchString(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

func looksLikeName(raw string) bool {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		w := strings.Trim(tok, ".,;!?")
		if w == "" {
			continue
		}
		if !reNameToken.MatchString(w) && !reHonorific.MatchString(w) {
			return false
		}
		if nonNameWords[strings.ToLower(w)] {
			return false
		}
	}
	return true
}

// assembleSpelledName reconstructs a name spelled letter by letter. Two letter
// groups (split on commas or "and"/"then") become first and last name; a user
// who answers the spelling prompt with a plain two-token name is accepted too.
func assembleSpelledName(text string) (first, last string, ok bool) {
	normalized := regexp.MustCompile(`(?i)\b(?:and|then)\b`).ReplaceAllString(text, ",")
	groups := strings.Split(normalized, ",")

	var names []string
	for _, group := range groups {
		letters := strings.Fields(strings.TrimSpace(group))
		if len(letters) == 0 {
			continue
		}
		allSingle := true
		for _, l := range letters {
			if !reSingleLetter.MatchString(strings.Trim(l, ".-")) {
				allSingle = false
				break
			}
		}
		if allSingle && len(letters) > 1 {
			var b strings.Builder
			for _, l := range letters {
				b.WriteString(strings.Trim(l, ".-"))
			}
			names = append(names, capitalize(b.String()))
			continue
		}
		// Plain tokens: accept name-like words as-is.
		for _, l := range letters {
			w := strings.Trim(l, ".,;!?")
			if reNameToken.MatchString(w) && !reHonorific.MatchString(w) {
				names = append(names, w)
			}
		}
	}

	switch {
	case len(names) >= 2:
		return names[0], names[len(names)-1], true
	case len(names) == 1:
		return names[0], "", true
	default:
		return "", "", false
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// applyBareAnswer interprets an utterance with no recognized pattern as the
// direct answer to whatever the session is waiting for.
func applyBareAnswer(ext *Extraction, clean string, s *domain.Session) {
	tokens := strings.Fields(clean)

	switch s.Expecting {
	case domain.ExpectEmployeeID:
		if len(tokens) >= 1 {
			candidate := strings.Trim(tokens[len(tokens)-1], ".,;")
			if candidate != "" {
				ext.EmployeeID = strings.ToUpper(candidate)
			}
		}
		return
	case domain.ExpectFirstName:
		if len(tokens) == 1 && reNameToken.MatchString(strings.Trim(tokens[0], ".,;")) {
			ext.FirstName = strings.Trim(tokens[0], ".,;")
		}
		return
	case domain.ExpectLastName:
		if len(tokens) == 1 && reNameToken.MatchString(strings.Trim(tokens[0], ".,;")) {
			ext.LastName = strings.Trim(tokens[0], ".,;")
		}
		return
	}

	// Unprompted short name-like answers during identity collection,
	// e.g. "Brian Phillips" right after the greeting.
	if s.Phase != domain.PhaseCollectingIdentity && s.Phase != domain.PhaseValidating {
		return
	}
	nameLike := nameTokens(clean)
	if len(nameLike) == 0 || len(nameLike) != len(tokens) || len(nameLike) > 3 {
		return
	}
	for _, tok := range nameLike {
		if nonNameWords[strings.ToLower(tok)] {
			return
		}
	}
	applyNameHeuristic(ext, strings.Join(nameLike, " "))
}

func sanitizeValue(raw string) string {
	value := strings.TrimSpace(raw)
	// A trailing clause about another field belongs to that field's match.
	for _, sep := range []string{" and my ", " and change ", " and set ", " and update ", "; "} {
		if idx := indexFold(value, sep); idx >= 0 {
			value = value[:idx]
		}
	}
	value = strings.Trim(value, `"'`)
	value = strings.TrimRight(value, ".!?")
	return strings.TrimSpace(value)
}

func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}

func parseYesNo(text string) *bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	lower = strings.Trim(lower, ".,!?")
	words := strings.Fields(lower)
	if len(words) == 0 || len(words) > 4 {
		return nil
	}
	for i, w := range words {
		words[i] = strings.Trim(w, ".,!?")
	}
	if noWords[words[0]] || lower == "no thanks" || lower == "no thank you" || lower == "not now" {
		v := false
		return &v
	}
	if yesWords[words[0]] {
		v := true
		return &v
	}
	return nil
}
