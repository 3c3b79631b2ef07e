/*
Package ports defines the driven ports (interfaces) for the employee
self-service agent.

These interfaces decouple the dialogue core from external implementations,
allowing the agent to work with various storage backends and tool transports.

# Key Interfaces

  - SessionStore: persists and loads dialogue sessions.
  - DistributedLocker: serializes per-session turns across replicas.
  - Validator / Updater: the two backend tool operations.
*/
package ports
