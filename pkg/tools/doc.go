/*
Package tools provides the narrow clients for the two backend profile
operations: identity validation and profile update.

Failures are classified into a small taxonomy (transient, rate-limited, client
input) that the dialogue manager turns into user-facing branches. The adapters
themselves never retry.

The package also carries the tool registry used by engine hosts to dispatch
named tool calls with untyped argument maps.
*/
package tools
