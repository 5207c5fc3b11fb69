// Package database implements the Postgres repositories.
//
// Repositories return domain structs and map pgx.ErrNoRows to domain sentinel
// errors. The vote repository is the storage half of the vote ledger: it
// applies a vote transition and its score/karma side effects inside one
// transaction, with the vote row locked for the duration.
package database
