/*
Package dialogue implements the employee self-service dialogue state machine.

The manager owns all per-session decisions: which identity slots to ask for,
when to call the validation and update tools, how many retries each failure
class gets, and which of the fixed closing messages to deliver. Session state
lives in an explicit typed record (pkg/domain.Session) rather than in prompt
text, which makes every decision point check state before asking anything.
Re-stating a known fact never triggers a redundant question or tool call.

Slot filling is rule-based (package-local Extract). Any richer language
understanding engine can replace it as long as it produces the same
Extraction contract.
*/
package dialogue
