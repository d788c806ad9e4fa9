package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Revenue Forecast Report\n\n")
	sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %s | Rendered: %s\n\n",
		r.GeneratedAt.Format(time.RFC3339), r.RenderedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Segments: %d\n\n", r.SegmentCount))

	// Scenario Summaries
	sb.WriteString("## Scenario Summary\n\n")
	if len(r.ScenarioSummaries) > 0 {
		sb.WriteString("| Scenario | Segments | Projected Revenue | Pipeline Included | Deals |\n")
		sb.WriteString("|----------|----------|-------------------|-------------------|-------|\n")
		for _, s := range r.ScenarioSummaries {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.2f | %d |\n",
				s.Scenario, s.SegmentCount, s.ProjectedRevenue, s.PipelineIncluded, s.DealCount))
		}
	} else {
		sb.WriteString("No segments in this run.\n")
	}
	sb.WriteString("\n")

	// Segments
	sb.WriteString("## Segments\n\n")
	if len(r.Segments) > 0 {
		sb.WriteString("| Scenario | Revenue Type | Stage | Motion | Market | Projected | Conv Rate | Pipeline | Deals |\n")
		sb.WriteString("|----------|--------------|-------|--------|--------|-----------|-----------|----------|-------|\n")
		for _, s := range r.Segments {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %.2f | %.4f | %.2f | %d |\n",
				s.Scenario, s.RevenueType, s.Stage, s.Motion, s.Market,
				s.ProjectedRevenue, s.ConversionRateUsed, s.PipelineIncluded, s.DealCount))
		}
	} else {
		sb.WriteString("No segments available.\n")
	}
	sb.WriteString("\n")

	// Revenue Breakdown
	sb.WriteString("## Revenue Breakdown\n\n")
	if len(r.RevenueBreakdown) > 0 {
		sb.WriteString("| Scenario | Revenue Type | Projected Revenue |\n")
		sb.WriteString("|----------|--------------|-------------------|\n")
		for _, b := range r.RevenueBreakdown {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.2f |\n",
				b.Scenario, b.RevenueType, b.ProjectedRevenue))
		}
	} else {
		sb.WriteString("No revenue breakdown available.\n")
	}
	sb.WriteString("\n")

	// Explanations
	sb.WriteString("## Top Deal Explanations\n\n")
	if len(r.Explanations) > 0 {
		sb.WriteString("| Account | Likelihood | Explanation |\n")
		sb.WriteString("|---------|------------|-------------|\n")
		for _, e := range r.Explanations {
			sb.WriteString(fmt.Sprintf("| %s | %.0f | %s |\n",
				e.AccountID, e.Likelihood, escapePipes(e.Explanation)))
		}
	} else {
		sb.WriteString("No deal explanations stored.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// escapePipes keeps free-text explanations from breaking table cells.
func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
