// Package explain produces short natural-language rationales for the top
// momentum deals feeding a forecast. The primary path asks a generative
// model; a deterministic rule-based fallback always stands in when the
// model is unavailable or returns noise, so a forecast run never blocks
// on the model.
package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/llm"
)

// DefaultTopN is how many deals are ranked when the caller passes 0.
const DefaultTopN = 10

const systemPrompt = `You are a B2B SaaS revenue analyst. Generate concise deal likelihood explanations.
For each deal, explain in 1-2 sentences why it is likely or unlikely to close based on the provided data.
Return a JSON array of objects with "account_id", "explanation", and "likelihood" (0-100) fields.
Return ONLY the JSON array, no other text.`

// Explainer generates deal explanations.
type Explainer struct {
	gen    llm.Generator
	logger *log.Logger
}

// NewExplainer creates an Explainer. gen may be nil, in which case only the
// deterministic fallback path is used.
func NewExplainer(gen llm.Generator, logger *log.Logger) *Explainer {
	return &Explainer{gen: gen, logger: logger}
}

// dealSummary is the structured payload sent to the model, one per deal.
type dealSummary struct {
	AccountID    string   `json:"account_id"`
	Score        float64  `json:"score"`
	IsStalled    bool     `json:"is_stalled"`
	StalledSince *string  `json:"stalled_since"`
	Factors      []string `json:"factors,omitempty"`
}

// rawExplanation is one element of the model's JSON array response.
type rawExplanation struct {
	AccountID   string  `json:"account_id"`
	Explanation string  `json:"explanation"`
	Likelihood  float64 `json:"likelihood"`
}

// Explain ranks the top momentum deals and returns one explanation per
// deal, plus whether the deterministic fallback produced them. It filters
// scores to deal_momentum, resolves the most recent snapshot per account,
// sorts descending by score value and keeps topN. Never returns an error:
// any model failure resolves to the fallback.
func (e *Explainer) Explain(ctx context.Context, scores []*domain.AccountScore, topN int) ([]*domain.DealExplanation, bool) {
	if topN <= 0 {
		topN = DefaultTopN
	}

	topDeals := topMomentumDeals(scores, topN)
	if len(topDeals) == 0 {
		return nil, false
	}

	if e.gen != nil {
		if explanations := e.generate(ctx, topDeals); explanations != nil {
			return explanations, false
		}
	}

	return fallbackExplanations(topDeals), true
}

// topMomentumDeals resolves the latest deal_momentum snapshot per account in
// a single pass, then returns the topN by score value descending. Ties break
// by account id ascending so output order is stable.
func topMomentumDeals(scores []*domain.AccountScore, topN int) []*domain.AccountScore {
	latest := make(map[string]*domain.AccountScore)
	for _, s := range scores {
		if s.ScoreType != domain.ScoreTypeDealMomentum {
			continue
		}
		best, ok := latest[s.AccountID]
		if !ok || s.ScoreDate.After(best.ScoreDate) {
			latest[s.AccountID] = s
		}
	}

	deals := make([]*domain.AccountScore, 0, len(latest))
	for _, s := range latest {
		deals = append(deals, s)
	}
	sort.Slice(deals, func(i, j int) bool {
		if deals[i].ScoreValue != deals[j].ScoreValue {
			return deals[i].ScoreValue > deals[j].ScoreValue
		}
		return deals[i].AccountID < deals[j].AccountID
	})

	if len(deals) > topN {
		deals = deals[:topN]
	}
	return deals
}

// generate runs the model path. Returns nil on any failure so the caller
// falls back.
func (e *Explainer) generate(ctx context.Context, topDeals []*domain.AccountScore) []*domain.DealExplanation {
	summaries := make([]dealSummary, len(topDeals))
	for i, deal := range topDeals {
		var stalledSince *string
		if deal.StalledSince != nil {
			d := deal.StalledSince.Format("2006-01-02")
			stalledSince = &d
		}
		summaries[i] = dealSummary{
			AccountID:    deal.AccountID,
			Score:        deal.ScoreValue,
			IsStalled:    deal.IsStalled,
			StalledSince: stalledSince,
			Factors:      deal.ContributingFactors,
		}
	}

	payload, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return nil
	}
	prompt := fmt.Sprintf("Analyze these deals and explain their likelihood to close:\n%s", payload)

	text, err := e.gen.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		e.logf("explanation generation failed, using fallback: %v", err)
		return nil
	}

	parsed, err := parseExplanations(text)
	if err != nil {
		e.logf("unparseable explanation response, using fallback: %v", err)
		return nil
	}

	explanations := make([]*domain.DealExplanation, len(parsed))
	for i, item := range parsed {
		explanations[i] = &domain.DealExplanation{
			AccountID:   item.AccountID,
			Explanation: item.Explanation,
			Likelihood:  item.Likelihood,
		}
	}
	return explanations
}

// parseExplanations parses the model's text into explanation items.
// Tries direct parsing first, then the first bracketed array substring,
// then JSON repair.
func parseExplanations(text string) ([]rawExplanation, error) {
	var parsed []rawExplanation
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		return parsed, nil
	}

	// Models often wrap the array in prose or markdown fences.
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		candidate := text[start : end+1]
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			return parsed, nil
		}
		repaired, err := jsonrepair.RepairJSON(candidate)
		if err == nil {
			if err := json.Unmarshal([]byte(repaired), &parsed); err == nil {
				return parsed, nil
			}
		}
	}

	return nil, fmt.Errorf("response contains no parseable explanation array")
}

// fallbackExplanations derives templated explanations purely from local
// data. Likelihood equals the raw momentum score.
func fallbackExplanations(topDeals []*domain.AccountScore) []*domain.DealExplanation {
	explanations := make([]*domain.DealExplanation, len(topDeals))
	for i, deal := range topDeals {
		explanations[i] = &domain.DealExplanation{
			AccountID:   deal.AccountID,
			Explanation: fallbackText(deal),
			Likelihood:  deal.ScoreValue,
		}
	}
	return explanations
}

// fallbackText picks the template for one deal.
func fallbackText(deal *domain.AccountScore) string {
	score := deal.ScoreValue
	switch {
	case deal.IsStalled:
		return fmt.Sprintf("Deal stalled since %s. Score: %s/100. No active next step recorded.",
			stalledSinceLabel(deal.StalledSince), formatScore(score))
	case score > 70:
		return fmt.Sprintf("High momentum (%s/100). Strong pipeline velocity and active engagement signals.", formatScore(score))
	case score > 40:
		return fmt.Sprintf("Moderate momentum (%s/100). Progressing but may need attention to accelerate.", formatScore(score))
	default:
		return fmt.Sprintf("Low momentum (%s/100). At risk of stalling or loss without intervention.", formatScore(score))
	}
}

func stalledSinceLabel(since *time.Time) string {
	if since == nil {
		return "unknown date"
	}
	return since.Format("2006-01-02")
}

// formatScore renders a score without a trailing ".0" for whole values.
func formatScore(score float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", score), "0"), ".")
}

func (e *Explainer) logf(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}
