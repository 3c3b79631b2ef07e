/*
Package session serializes concurrent access to dialogue sessions.

It layers reference-counted in-process locks, and optionally a distributed
locker for multi-replica deployments, over a pluggable session store.
*/
package session
