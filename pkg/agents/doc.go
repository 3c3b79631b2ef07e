/*
Package agents orchestrates conversation turns against an assistants-style
agents platform.

The Client speaks the threads/runs REST protocol; the Orchestrator composes it
into the turn lifecycle: create or reuse a thread, append the user message,
trigger a run, poll to a terminal status and extract the newest assistant
answer.
*/
package agents
