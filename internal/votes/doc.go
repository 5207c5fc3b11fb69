// Package votes implements the vote ledger: at most one stored vote per
// (agent, target, type), with score and karma propagated atomically alongside
// the vote row. The transition table lives here as a pure function; the
// database layer executes it inside a transaction.
package votes
