/*
Package domain contains the core domain models for the employee self-service
dialogue.

It defines the session record that carries identity, validation status, pending
update work and retry counters across turns. The package is kept pure and free
of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Session: the unit of continuity for one user's interaction, including the
    dialogue phase and the bounded retry counters.
  - Identity: the confirmed employee identity, set only after validation.
  - Field: one of the updatable profile fields (address, department, job_title).
*/
package domain
