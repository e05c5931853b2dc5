// Package analysis drives a validation record through its analysis
// lifecycle: building the prompt, calling the model, and persisting the
// outcome or an observable failure.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bizvalidator/internal/model"
	"github.com/sells-group/bizvalidator/pkg/anthropic"
)

// Generator produces a structured market analysis for a validation record.
type Generator interface {
	Generate(ctx context.Context, rec *model.ValidationRecord) (*model.Analysis, error)
}

// GeneratorConfig configures the Claude-backed generator.
type GeneratorConfig struct {
	Model       string
	MaxTokens   int64
	Timeout     time.Duration
	Temperature float64
}

// ClaudeGenerator implements Generator against the Anthropic API.
type ClaudeGenerator struct {
	client anthropic.Client
	cfg    GeneratorConfig
}

// NewClaudeGenerator creates a generator backed by the given client.
func NewClaudeGenerator(client anthropic.Client, cfg GeneratorConfig) *ClaudeGenerator {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &ClaudeGenerator{client: client, cfg: cfg}
}

const systemPrompt = "You are a business validation expert with deep knowledge of market analysis, " +
	"competitive research, and go-to-market strategies. Always respond with valid JSON format."

// Generate calls the model with a bounded timeout and parses the response
// into an Analysis. Any transport, parse, or shape failure is returned as an
// error; the orchestrator decides how to record it.
func (g *ClaudeGenerator) Generate(ctx context.Context, rec *model.ValidationRecord) (*model.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	temp := g.cfg.Temperature
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		System:      systemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildPrompt(rec)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "analysis: generate")
	}
	resp.Usage.LogCost(g.cfg.Model, rec.ID)

	analysis, err := parseAnalysis(extractText(resp))
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// buildPrompt renders the validation prompt from record fields.
func buildPrompt(rec *model.ValidationRecord) string {
	return fmt.Sprintf(`Analyze the following business concept and produce a comprehensive validation report.

Business Details:
- Business Idea: %s
- Target Region: %s
- Industry: %s
- Target Audience: %s
- Budget: %s

Evaluate market opportunity (size, growth, segments, demand trends), the
competitive landscape (direct and indirect competitors, differentiation
opportunities, key players), the regulatory environment for %s in %s,
a lean-canvas go-to-market strategy with channels and milestones sized to a
%s budget, financial projections (revenue, break-even, funding needs, KPIs),
and a risk assessment with mitigations. Conclude with a validation score from
1 to 10, an overall recommendation, and actionable next steps.

Respond with a single JSON object in exactly this shape:
{
  "marketOpportunity": {"marketSize": "...", "growthRate": "...", "segments": ["..."], "demandTrend": "High/Medium/Low", "marketAnalysis": "..."},
  "competitive": {"directCompetitors": 0, "indirectCompetitors": 0, "marketShare": "...", "opportunities": ["..."], "competitiveAnalysis": "...", "keyCompetitors": ["..."]},
  "regulatory": {"complexity": "Low/Medium/High", "requirements": ["..."], "timeToCompliance": "...", "regulatoryAnalysis": "..."},
  "goToMarket": {"strategy": "...", "channels": ["..."], "timeline": "...", "keyMilestones": ["..."]},
  "financial": {"revenueProjection": "...", "breakEvenTime": "...", "fundingNeeds": "...", "keyMetrics": ["..."]},
  "risks": {"level": "Low/Medium/High", "primaryRisks": ["..."], "mitigation": ["..."]},
  "validation": {"score": 0, "recommendation": "...", "nextSteps": ["..."]}
}`,
		rec.BusinessIdea, rec.TargetRegion, rec.Industry, rec.TargetAudience, rec.Budget,
		rec.Industry, rec.TargetRegion, rec.Budget,
	)
}

// parseAnalysis decodes model output into an Analysis and validates its shape.
func parseAnalysis(text string) (*model.Analysis, error) {
	cleaned := cleanJSON(text)

	var a model.Analysis
	if err := json.Unmarshal([]byte(cleaned), &a); err != nil {
		return nil, eris.Wrap(err, "analysis: parse response")
	}

	if a.Validation.Score < 1 || a.Validation.Score > 10 {
		return nil, eris.Errorf("analysis: score %d out of range", a.Validation.Score)
	}
	if a.MarketOpportunity.MarketAnalysis == "" || a.Validation.Recommendation == "" {
		return nil, eris.New("analysis: response missing required sections")
	}

	// Arrays must be present even when empty.
	for _, arr := range []*[]string{
		&a.MarketOpportunity.Segments,
		&a.Competitive.Opportunities,
		&a.Competitive.KeyCompetitors,
		&a.Regulatory.Requirements,
		&a.GoToMarket.Channels,
		&a.GoToMarket.KeyMilestones,
		&a.Financial.KeyMetrics,
		&a.Risks.PrimaryRisks,
		&a.Risks.Mitigation,
		&a.Validation.NextSteps,
	} {
		if *arr == nil {
			*arr = []string{}
		}
	}

	return &a, nil
}

// extractText concatenates text blocks from a message response.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
