package domain

import "time"

// FunnelStage is an ordered step in the customer lifecycle.
type FunnelStage string

// Funnel stage constants, in lifecycle order.
const (
	StageAwareness  FunnelStage = "awareness"
	StageEducation  FunnelStage = "education"
	StageSelection  FunnelStage = "selection"
	StageCommit     FunnelStage = "commit"
	StageOnboarding FunnelStage = "onboarding"
	StageImpact     FunnelStage = "impact"
	StageGrowth     FunnelStage = "growth"
	StageAdvocacy   FunnelStage = "advocacy"
)

// SalesMotion is an acquisition channel category.
type SalesMotion string

// Sales motion constants.
const (
	MotionInbound  SalesMotion = "inbound"
	MotionOutbound SalesMotion = "outbound"
	MotionPaidAds  SalesMotion = "paid_ads"
	MotionPLG      SalesMotion = "plg"
	MotionPartner  SalesMotion = "partner"
	MotionEvents   SalesMotion = "events"
)

// Market is a region code.
type Market string

// Market constants.
const (
	MarketUS    Market = "us"
	MarketEMEA  Market = "emea"
	MarketAPAC  Market = "apac"
	MarketLATAM Market = "latam"
)

// FunnelObservation is one historical daily funnel measurement for a
// (stage, motion, market) combination. Observations are immutable snapshots
// supplied by the metrics sync; the engine never mutates them.
type FunnelObservation struct {
	Date   time.Time // calendar date (UTC midnight)
	Stage  FunnelStage
	Motion SalesMotion
	Market Market

	LeadsCount     int     // non-negative
	ConversionRate float64 // 0..1
	Revenue        float64
	Spend          float64
	PipelineValue  float64
}

// SegmentKey identifies a (stage, motion, market) segment.
type SegmentKey struct {
	Stage  FunnelStage
	Motion SalesMotion
	Market Market
}

// Key returns the segment key of an observation.
func (o *FunnelObservation) Key() SegmentKey {
	return SegmentKey{Stage: o.Stage, Motion: o.Motion, Market: o.Market}
}
