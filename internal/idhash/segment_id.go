// Package idhash computes deterministic identifiers for forecast records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"revenue-forecast-lab/internal/domain"
)

// ComputeSegmentID computes a deterministic segment_id using SHA256.
// Formula: SHA256(run_id|scenario|stage|revenue_type|motion|market)
// Returns hex-encoded hash (64 characters).
//
// Stage is part of the key: two stages can share a revenue type
// (selection and commit both forecast as new_business), and each keeps
// its own segment per (motion, market).
func ComputeSegmentID(
	runID string,
	scenario domain.ForecastScenario,
	stage domain.FunnelStage,
	revenueType domain.RevenueType,
	motion domain.SalesMotion,
	market domain.Market,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		runID,
		string(scenario),
		string(stage),
		string(revenueType),
		string(motion),
		string(market),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
