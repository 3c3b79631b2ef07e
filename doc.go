/*
Package empassist implements an employee self-service conversational agent.

The agent verifies an employee's identity against a backend validation
operation, collects profile update intents (address, department, job title)
and applies them through a backend update operation, holding a guided dialogue
with bounded retry budgets along the way.

The root Agent runs the dialogue locally over a pluggable session store.
Subpackages provide the building blocks: pkg/dialogue is the state machine,
pkg/tools wraps the backend operations, pkg/agents orchestrates turns against
a hosted assistants-style platform, and pkg/apischema slices OpenAPI documents
into per-operation tool schemas for agent provisioning.
*/
package empassist
