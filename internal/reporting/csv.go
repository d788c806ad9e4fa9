package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders segment rows as a CSV string.
func RenderCSV(segments []SegmentRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("scenario,revenue_type,funnel_stage,motion,market,projected_revenue,conversion_rate_used,pipeline_included,deal_count\n")

	// Rows
	for _, s := range segments {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%.2f,%.4f,%.2f,%d\n",
			s.Scenario,
			s.RevenueType,
			s.Stage,
			s.Motion,
			s.Market,
			s.ProjectedRevenue,
			s.ConversionRateUsed,
			s.PipelineIncluded,
			s.DealCount,
		))
	}

	return sb.String()
}
