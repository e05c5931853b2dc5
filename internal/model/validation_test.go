package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnalysis() Analysis {
	return Analysis{
		MarketOpportunity: MarketOpportunity{
			MarketSize:     "$2.5B",
			GrowthRate:     "12% annually",
			Segments:       []string{"SMBs", "startups"},
			DemandTrend:    "High",
			MarketAnalysis: "Strong demand in the region.",
		},
		Competitive: Competitive{
			DirectCompetitors:   4,
			IndirectCompetitors: 9,
			MarketShare:         "Fragmented",
			Opportunities:       []string{"localization"},
			CompetitiveAnalysis: "Crowded but differentiable.",
			KeyCompetitors:      []string{"Acme"},
		},
		Regulatory: Regulatory{
			Complexity:         "Medium",
			Requirements:       []string{"GDPR"},
			TimeToCompliance:   "3 months",
			RegulatoryAnalysis: "Manageable.",
		},
		GoToMarket: GoToMarket{
			Strategy:      "Lean launch",
			Channels:      []string{"content marketing"},
			Timeline:      "6 months",
			KeyMilestones: []string{"MVP"},
		},
		Financial: Financial{
			RevenueProjection: "$500k year one",
			BreakEvenTime:     "18 months",
			FundingNeeds:      "None beyond budget",
			KeyMetrics:        []string{"MRR"},
		},
		Risks: Risks{
			Level:        "Medium",
			PrimaryRisks: []string{"competition"},
			Mitigation:   []string{"niche focus"},
		},
		Validation: Verdict{
			Score:          7,
			Recommendation: "Proceed with a pilot.",
			NextSteps:      []string{"build landing page"},
		},
	}
}

func TestParseAnalysisResult_Success(t *testing.T) {
	payload, err := json.Marshal(sampleAnalysis())
	require.NoError(t, err)

	a, fb, err := ParseAnalysisResult(string(payload))
	require.NoError(t, err)
	require.Nil(t, fb)
	require.NotNil(t, a)
	assert.Equal(t, 7, a.Validation.Score)
	assert.Equal(t, "$2.5B", a.MarketOpportunity.MarketSize)
}

func TestParseAnalysisResult_Fallback(t *testing.T) {
	payload := FallbackPayload("Analysis temporarily unavailable. Please try again later.")

	a, fb, err := ParseAnalysisResult(payload)
	require.NoError(t, err)
	assert.Nil(t, a)
	require.NotNil(t, fb)
	assert.True(t, fb.Fallback)
	assert.Contains(t, fb.Error, "temporarily unavailable")
}

func TestParseAnalysisResult_Garbage(t *testing.T) {
	_, _, err := ParseAnalysisResult("not json at all")
	assert.Error(t, err)
}

func TestParseAnalysisResult_ErrorKeyAsData(t *testing.T) {
	// A payload with an "error" key but no fallback marker is not a sentinel.
	a, fb, err := ParseAnalysisResult(`{"error": "just a field", "validation": {"score": 5}}`)
	require.NoError(t, err)
	assert.Nil(t, fb)
	require.NotNil(t, a)
	assert.Equal(t, 5, a.Validation.Score)
}

func TestValidationInput_FieldErrors(t *testing.T) {
	in := ValidationInput{
		BusinessIdea:   "AI meal planner",
		TargetRegion:   "Europe",
		Industry:       "technology",
		TargetAudience: "SMBs",
		Budget:         "10k-50k",
	}
	assert.Nil(t, in.FieldErrors())

	in.Budget = ""
	in.Industry = ""
	errs := in.FieldErrors()
	require.Len(t, errs, 2)
	assert.Contains(t, errs, "budget")
	assert.Contains(t, errs, "industry")
}
