package discovery

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/scout-group/discover-cli/internal/model"
)

// rawCandidate is the wire shape the prompt asks for.
type rawCandidate struct {
	Name          string   `json:"name"`
	Website       string   `json:"website"`
	Description   string   `json:"description"`
	City          string   `json:"city"`
	Country       string   `json:"country"`
	IndustryTags  []string `json:"industry_tags"`
	FundingSignal bool     `json:"funding_signal"`
	FundingAmount string   `json:"funding_amount"`
}

// parseCandidateJSON reads a model response defensively: code fences are
// stripped, the array is located inside surrounding prose, and malformed
// elements are skipped rather than failing the batch.
func parseCandidateJSON(text string) []model.CandidateRecord {
	text = stripCodeFences(text)

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		zap.L().Debug("no JSON array in model response", zap.Int("len", len(text)))
		return nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &raws); err != nil {
		zap.L().Debug("model response array unparseable", zap.Error(err))
		return nil
	}

	var out []model.CandidateRecord
	for _, raw := range raws {
		var rc rawCandidate
		if err := json.Unmarshal(raw, &rc); err != nil {
			zap.L().Debug("skipping malformed candidate element", zap.Error(err))
			continue
		}
		if strings.TrimSpace(rc.Name) == "" {
			continue
		}
		c := model.CandidateRecord{
			Name:          strings.TrimSpace(rc.Name),
			Website:       strings.TrimSpace(rc.Website),
			Description:   strings.TrimSpace(rc.Description),
			IndustryTags:  rc.IndustryTags,
			FundingSignal: rc.FundingSignal,
			FundingAmount: strings.TrimSpace(rc.FundingAmount),
		}
		if rc.City != "" || rc.Country != "" {
			c.Location = &model.Location{City: rc.City, Country: rc.Country}
		}
		out = append(out, c)
	}
	return out
}

// stripCodeFences removes a surrounding ```json ... ``` block if present.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.Index(text, "\n"); i >= 0 {
		// Drop the language tag line.
		text = text[i+1:]
	}
	if i := strings.LastIndex(text, "```"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
