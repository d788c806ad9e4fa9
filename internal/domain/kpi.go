package domain

import "time"

// Rep role constants.
const (
	RoleAE  = "ae"
	RoleSDR = "sdr"
	RoleCSM = "csm"
)

// RepKPI is a per-rep performance snapshot for one period.
// The forecast engine consumes only the GRR of CSM-role rows.
type RepKPI struct {
	RepID           string
	Role            string
	GRR             *float64 // gross revenue retention, 0..1, nullable
	QuotaAttainment *float64 // 0..1+, nullable
	PeriodStart     time.Time
}
