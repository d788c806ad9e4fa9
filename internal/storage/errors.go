package storage

import "errors"

// Sentinel errors shared by every store. Observations, scores, KPI rows and
// forecast runs are historical facts, so stores append and never update.
var (
	// ErrNotFound is returned when a requested record does not exist, e.g.
	// a forecast run id with no stored run, or tunables before the first Put.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert collides with an existing
	// record: a re-run with the same run id, a segment id already persisted,
	// or a second observation for one (date, stage, motion, market).
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
