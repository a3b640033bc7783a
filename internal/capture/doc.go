// Package capture implements the audit capture engine: it mirrors inserts,
// updates, and deletes on tracked entities into append-only event tables,
// synchronously and inside the same transaction as the mutation.
//
// A Session is one unit of work. It wraps a database transaction and owns
// the two pieces of session-local state:
//   - the ignore stack (rule names whose capture is currently suppressed)
//   - the current context (who/why metadata attached to emitted events)
//
// Neither is visible to other sessions, and both die with the session, so
// an un-popped suppression can never leak past its owning transaction.
//
// Each mutation runs the rule state machine: check the ignore stack first,
// then (for updates) the change predicate over the watch-set, then emit.
// Emission failures propagate and abort the enclosing transaction; there is
// no deferred or asynchronous firing and no retry.
package capture
