// Package app composes the repositories, the vote ledger, and the thread
// assembler into the operations the HTTP handlers call.
package app
