// Package redis provides a Redis-backed session store and distributed locker
// for multi-replica deployments.
package redis
