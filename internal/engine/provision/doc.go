// Package provision drives a bulk account-creation batch to completion.
//
// The engine is deliberately sequential: records are processed one at a
// time, in input order, and a failure on one record never aborts the batch.
// Every record produces exactly one outcome, one log event, and one status
// line, so the log trail is a complete per-record audit of the run.
package provision
