package model

import (
	"encoding/json"
	"time"
)

// AnalysisStatus represents the current state of a validation record's
// analysis lifecycle. It is stored explicitly and written in the same update
// as the analysis payload, so readers never have to derive state by parsing
// the payload.
type AnalysisStatus string

const (
	StatusPending AnalysisStatus = "pending"
	StatusReady   AnalysisStatus = "ready"
	StatusFailed  AnalysisStatus = "failed"
)

// ValidationRecord is the persisted entity for one submitted business idea
// and its analysis outcome.
type ValidationRecord struct {
	ID             int64          `json:"id"`
	BusinessIdea   string         `json:"businessIdea"`
	TargetRegion   string         `json:"targetRegion"`
	Industry       string         `json:"industry"`
	TargetAudience string         `json:"targetAudience"`
	Budget         string         `json:"budget"`
	AnalysisResult *string        `json:"analysisResult"`
	Status         AnalysisStatus `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// ValidationInput holds the caller-supplied fields for a new record.
type ValidationInput struct {
	BusinessIdea   string `json:"businessIdea"`
	TargetRegion   string `json:"targetRegion"`
	Industry       string `json:"industry"`
	TargetAudience string `json:"targetAudience"`
	Budget         string `json:"budget"`
}

// FieldErrors returns a map of field name to problem for any missing
// required input, nil when the input is valid.
func (in ValidationInput) FieldErrors() map[string]string {
	errs := make(map[string]string)
	for field, value := range map[string]string{
		"businessIdea":   in.BusinessIdea,
		"targetRegion":   in.TargetRegion,
		"industry":       in.Industry,
		"targetAudience": in.TargetAudience,
		"budget":         in.Budget,
	} {
		if value == "" {
			errs[field] = "required"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Analysis is the structured output produced for a validation record.
// All sections are required; arrays may be empty but must be present.
type Analysis struct {
	MarketOpportunity MarketOpportunity `json:"marketOpportunity"`
	Competitive       Competitive       `json:"competitive"`
	Regulatory        Regulatory        `json:"regulatory"`
	GoToMarket        GoToMarket        `json:"goToMarket"`
	Financial         Financial         `json:"financial"`
	Risks             Risks             `json:"risks"`
	Validation        Verdict           `json:"validation"`
}

// MarketOpportunity summarizes market size and demand.
type MarketOpportunity struct {
	MarketSize     string   `json:"marketSize"`
	GrowthRate     string   `json:"growthRate"`
	Segments       []string `json:"segments"`
	DemandTrend    string   `json:"demandTrend"`
	MarketAnalysis string   `json:"marketAnalysis"`
}

// Competitive summarizes the competitive landscape.
type Competitive struct {
	DirectCompetitors   int      `json:"directCompetitors"`
	IndirectCompetitors int      `json:"indirectCompetitors"`
	MarketShare         string   `json:"marketShare"`
	Opportunities       []string `json:"opportunities"`
	CompetitiveAnalysis string   `json:"competitiveAnalysis"`
	KeyCompetitors      []string `json:"keyCompetitors"`
}

// Regulatory summarizes region-specific compliance considerations.
type Regulatory struct {
	Complexity         string   `json:"complexity"`
	Requirements       []string `json:"requirements"`
	TimeToCompliance   string   `json:"timeToCompliance"`
	RegulatoryAnalysis string   `json:"regulatoryAnalysis"`
}

// GoToMarket holds the lean-canvas style launch plan.
type GoToMarket struct {
	Strategy      string   `json:"strategy"`
	Channels      []string `json:"channels"`
	Timeline      string   `json:"timeline"`
	KeyMilestones []string `json:"keyMilestones"`
}

// Financial holds projections and funding needs.
type Financial struct {
	RevenueProjection string   `json:"revenueProjection"`
	BreakEvenTime     string   `json:"breakEvenTime"`
	FundingNeeds      string   `json:"fundingNeeds"`
	KeyMetrics        []string `json:"keyMetrics"`
}

// Risks holds the risk assessment.
type Risks struct {
	Level        string   `json:"level"`
	PrimaryRisks []string `json:"primaryRisks"`
	Mitigation   []string `json:"mitigation"`
}

// Verdict holds the overall validation score and recommendation.
type Verdict struct {
	Score          int      `json:"score"`
	Recommendation string   `json:"recommendation"`
	NextSteps      []string `json:"nextSteps"`
}

// AnalysisFallback is the sentinel payload written in place of a real
// analysis when generation fails, so failure is observable rather than
// silent.
type AnalysisFallback struct {
	Error    string `json:"error"`
	Fallback bool   `json:"fallback"`
}

// FallbackPayload serializes a fallback sentinel for the given message.
func FallbackPayload(msg string) string {
	b, _ := json.Marshal(AnalysisFallback{Error: msg, Fallback: true})
	return string(b)
}

// ParseAnalysisResult decodes a stored analysisResult payload. It returns
// the analysis when the payload is a successful result, or the fallback
// sentinel when the payload records a failed attempt.
func ParseAnalysisResult(payload string) (*Analysis, *AnalysisFallback, error) {
	var fb AnalysisFallback
	if err := json.Unmarshal([]byte(payload), &fb); err == nil && fb.Fallback {
		return nil, &fb, nil
	}

	var a Analysis
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return nil, nil, err
	}
	return &a, nil, nil
}
