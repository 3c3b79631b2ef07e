package dialogue

import (
	"fmt"
	"strings"

	"github.com/empassist/empassist/pkg/domain"
)

// Fixed closing variants. The wording is part of the service script and must
// not drift between deployments.
const (
	closingWithEmail = "Perfect. The confirmation email has been sent. Your information change is now complete. " +
		"If you need any further assistance, feel free to ask. Thank you for contacting the employee service center and have a great day."

	closingWithoutEmail = "Your information change is now complete. " +
		"If you need any further assistance, feel free to ask. Thank you for contacting the employee service center and have a great day."

	msgSessionEnded = "This conversation has ended. Please start a new session if there is anything else you need."

	msgSpellName = "To make sure I have it right, please spell your first and last name, letter by letter."

	msgValidationExhausted = "I'm sorry, I wasn't able to verify your identity after three attempts. " +
		"For security reasons I can't make any changes today. Please contact the support desk for help."

	msgBackendTrouble = "Sorry, our backend is having trouble right now. Please try again shortly."

	msgRateLimited = "I'm still being rate-limited by the backend. Please try again in a few minutes."

	msgEditLoopsExhausted = "I wasn't able to apply that change. Please contact the support desk if you need further help."
)

func greetingAsk(missing []string) string {
	return "Hello, I can help you update your employee profile. First, I need to verify your identity. " +
		"Could you please provide your " + humanJoin(missing) + "?"
}

func followUpAsk(missing []string) string {
	return "Thank you. Could you also provide your " + humanJoin(missing) + "?"
}

func validatedReply(firstName string) string {
	return fmt.Sprintf("Thank you, %s. Your identity has been verified.", firstName)
}

func askWhichField() string {
	return "What would you like to update? You can change your address, department, or job title."
}

func askValue(field domain.Field) string {
	switch field {
	case domain.FieldAddress:
		return "Please provide your new address so I can update it in the system."
	case domain.FieldDepartment:
		return "Which department should I put on file?"
	case domain.FieldJobTitle:
		return "What should your new job title be?"
	default:
		return "What should the new value be?"
	}
}

func validationFailedReply(message, suspect string) string {
	reason := strings.TrimSpace(message)
	if reason == "" {
		reason = "the details did not match our records"
	}
	return fmt.Sprintf("Validation failed: %s. Please recheck your %s.", strings.TrimRight(reason, "."), suspect)
}

func correctiveReply(message string) string {
	reason := strings.TrimSpace(message)
	if reason == "" {
		reason = "the request was rejected"
	}
	return fmt.Sprintf("I couldn't submit that: %s. Please restate it, for example \"department = Finance\".", strings.TrimRight(reason, "."))
}

func updateSuccessReply(fields []domain.Field, values map[domain.Field]string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v := values[f]
		if v == "" {
			parts = append(parts, fmt.Sprintf("cleared your %s", fieldLabel(f)))
		} else {
			parts = append(parts, fmt.Sprintf("updated your %s to: %s", fieldLabel(f), v))
		}
	}
	return "Thank you. I've " + humanJoin(parts) + ". Would you like me to send a confirmation email?"
}

func noOpReply(fields []domain.Field) string {
	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		labels = append(labels, fieldLabel(f))
	}
	return fmt.Sprintf("No change was applied; the %s on file already matches that value. Would you like to try a different value?",
		humanJoin(labels))
}

func fieldLabel(f domain.Field) string {
	if f == domain.FieldJobTitle {
		return "job title"
	}
	return string(f)
}

func humanJoin(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}
