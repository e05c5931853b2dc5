package report

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bizvalidator/internal/model"
	"github.com/sells-group/bizvalidator/internal/store"
)

func fullAnalysis() *model.Analysis {
	return &model.Analysis{
		MarketOpportunity: model.MarketOpportunity{
			MarketSize:     "$2.5B",
			GrowthRate:     "12% annually",
			Segments:       []string{"SMBs", "startups"},
			DemandTrend:    "High",
			MarketAnalysis: "Strong demand across the region.",
		},
		Competitive: model.Competitive{
			DirectCompetitors:   4,
			IndirectCompetitors: 9,
			MarketShare:         "Fragmented",
			Opportunities:       []string{"localization"},
			CompetitiveAnalysis: "Crowded but differentiable.",
			KeyCompetitors:      []string{"Acme", "Globex"},
		},
		Regulatory: model.Regulatory{
			Complexity:         "Medium",
			Requirements:       []string{"GDPR compliance"},
			TimeToCompliance:   "3 months",
			RegulatoryAnalysis: "Manageable with counsel.",
		},
		GoToMarket: model.GoToMarket{
			Strategy:      "Lean launch",
			Channels:      []string{"content marketing", "partnerships"},
			Timeline:      "6 months",
			KeyMilestones: []string{"MVP", "first 100 users"},
		},
		Financial: model.Financial{
			RevenueProjection: "$500k year one",
			BreakEvenTime:     "18 months",
			FundingNeeds:      "None beyond budget",
			KeyMetrics:        []string{"MRR", "CAC"},
		},
		Risks: model.Risks{
			Level:        "Medium",
			PrimaryRisks: []string{"incumbent response"},
			Mitigation:   []string{"niche focus"},
		},
		Validation: model.Verdict{
			Score:          7,
			Recommendation: "Proceed with a pilot.",
			NextSteps:      []string{"build landing page", "run ad test"},
		},
	}
}

func testLeadInfo() LeadInfo {
	return LeadInfo{FirstName: "Ada", LastName: "Lovelace", Company: "Analytical Engines"}
}

// seedRecord creates a record and optionally attaches an analysis payload.
func seedRecord(t *testing.T, st store.Store, payload *string) *model.ValidationRecord {
	t.Helper()
	rec, err := st.CreateValidation(context.Background(), model.ValidationInput{
		BusinessIdea:   "AI meal planner",
		TargetRegion:   "Europe",
		Industry:       "technology",
		TargetAudience: "SMBs",
		Budget:         "10k-50k",
	})
	require.NoError(t, err)
	if payload != nil {
		status := model.StatusReady
		if _, fb, _ := model.ParseAnalysisResult(*payload); fb != nil {
			status = model.StatusFailed
		}
		rec, err = st.UpdateValidation(context.Background(), rec.ID, store.AnalysisUpdate{
			AnalysisResult: *payload,
			Status:         status,
		})
		require.NoError(t, err)
	}
	return rec
}

func analysisPayload(t *testing.T) *string {
	t.Helper()
	b, err := json.Marshal(fullAnalysis())
	require.NoError(t, err)
	s := string(b)
	return &s
}

func TestAssemble_RoundTrip(t *testing.T) {
	st := store.NewMemory()
	rec := seedRecord(t, st, analysisPayload(t))
	svc := NewService(st)

	data, err := svc.Assemble(context.Background(), rec.ID, testLeadInfo())
	require.NoError(t, err)
	assert.Equal(t, "AI meal planner", data.Record.BusinessIdea)
	assert.Equal(t, "Europe", data.Record.TargetRegion)
	assert.Equal(t, 7, data.Analysis.Validation.Score)
	assert.Equal(t, "Ada", data.Lead.FirstName)
}

func TestAssemble_RecordMissing(t *testing.T) {
	svc := NewService(store.NewMemory())

	_, err := svc.Assemble(context.Background(), 42, testLeadInfo())
	assert.True(t, eris.Is(err, store.ErrNotFound))
}

func TestAssemble_AnalysisNotReady(t *testing.T) {
	st := store.NewMemory()
	rec := seedRecord(t, st, nil)
	svc := NewService(st)

	_, err := svc.Assemble(context.Background(), rec.ID, testLeadInfo())
	assert.True(t, eris.Is(err, ErrAnalysisNotReady))
}

func TestAssemble_FallbackSentinelRejected(t *testing.T) {
	st := store.NewMemory()
	payload := model.FallbackPayload("generation failed")
	rec := seedRecord(t, st, &payload)
	svc := NewService(st)

	_, err := svc.Assemble(context.Background(), rec.ID, testLeadInfo())
	assert.True(t, eris.Is(err, ErrAnalysisInvalid))
}

func TestAssemble_LeadDataRequired(t *testing.T) {
	st := store.NewMemory()
	rec := seedRecord(t, st, analysisPayload(t))
	svc := NewService(st)

	_, err := svc.Assemble(context.Background(), rec.ID, LeadInfo{FirstName: "Ada"})
	assert.True(t, eris.Is(err, ErrLeadDataRequired))

	_, err = svc.Assemble(context.Background(), rec.ID, LeadInfo{})
	assert.True(t, eris.Is(err, ErrLeadDataRequired))
}

func TestRender_ProducesPDF(t *testing.T) {
	st := store.NewMemory()
	rec := seedRecord(t, st, analysisPayload(t))
	svc := NewService(st)

	pdf, filename, err := svc.Render(context.Background(), rec.ID, testLeadInfo())
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")), "output must be a PDF document")
	assert.Equal(t, "business-validation-report-1.pdf", filename)
}

func TestRender_ReflectsLatestAnalysis(t *testing.T) {
	st := store.NewMemory()
	rec := seedRecord(t, st, analysisPayload(t))
	svc := NewService(st)
	ctx := context.Background()

	first, _, err := svc.Render(ctx, rec.ID, testLeadInfo())
	require.NoError(t, err)

	// Re-analysis overwrites; the next download re-renders from current state.
	updated := fullAnalysis()
	updated.Validation.Score = 3
	b, err := json.Marshal(updated)
	require.NoError(t, err)
	_, err = st.UpdateValidation(ctx, rec.ID, store.AnalysisUpdate{
		AnalysisResult: string(b),
		Status:         model.StatusReady,
	})
	require.NoError(t, err)

	second, _, err := svc.Render(ctx, rec.ID, testLeadInfo())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
