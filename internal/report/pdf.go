package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Colors match the web report styling.
var (
	colorAccent = [3]int{37, 99, 235}   // blue
	colorGood   = [3]int{22, 163, 74}   // green
	colorWarn   = [3]int{234, 179, 8}   // yellow
	colorBad    = [3]int{220, 38, 38}   // red
	colorMuted  = [3]int{100, 116, 139} // slate
)

func scoreColor(score int) [3]int {
	switch {
	case score >= 8:
		return colorGood
	case score >= 6:
		return colorWarn
	default:
		return colorBad
	}
}

func levelColor(level string) [3]int {
	switch strings.ToLower(level) {
	case "low":
		return colorGood
	case "medium":
		return colorWarn
	default:
		return colorBad
	}
}

// renderPDF renders the assembled report data to an A4 PDF.
func renderPDF(data *Data) ([]byte, error) {
	rec, a, lead := data.Record, data.Analysis, data.Lead

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Header
	pdf.SetTextColor(colorAccent[0], colorAccent[1], colorAccent[2])
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, "Business Validation Report", "", 1, "C", false, 0, "")
	pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("AI-Powered Analysis for %s Business targeting %s", rec.Industry, rec.TargetRegion), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Prepared for: %s %s, %s", lead.FirstName, lead.LastName, lead.Company), "", 1, "C", false, 0, "")
	pdf.SetTextColor(51, 51, 51)
	pdf.MultiCell(0, 6, "Business Idea: "+rec.BusinessIdea, "", "C", false)
	pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
	pdf.CellFormat(0, 6, "Generated: "+time.Now().Format("January 2, 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.SetDrawColor(colorAccent[0], colorAccent[1], colorAccent[2])
	pdf.SetLineWidth(0.8)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(6)

	// Validation score
	sc := scoreColor(a.Validation.Score)
	pdf.SetTextColor(sc[0], sc[1], sc[2])
	pdf.SetFont("Helvetica", "B", 30)
	pdf.CellFormat(0, 14, fmt.Sprintf("%d/10", a.Validation.Score), "", 1, "C", false, 0, "")
	pdf.SetTextColor(51, 51, 51)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "Validation Score", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, a.Validation.Recommendation, "", "C", false)
	pdf.Ln(4)

	// Executive summary metrics
	sectionTitle(pdf, "Executive Summary")
	metricRow(pdf, [][2]string{
		{a.MarketOpportunity.MarketSize, "Market Size"},
		{a.MarketOpportunity.GrowthRate, "Growth Rate"},
		{fmt.Sprintf("%d", a.Competitive.DirectCompetitors), "Direct Competitors"},
	})
	pdf.Ln(4)

	// Market opportunity
	sectionTitle(pdf, "Market Opportunity Analysis")
	subTitle(pdf, "Target Market Segments")
	bulletList(pdf, a.MarketOpportunity.Segments)
	subTitle(pdf, "Demand Assessment")
	bodyText(pdf, a.MarketOpportunity.DemandTrend+" demand potential")
	subTitle(pdf, "Market Analysis")
	bodyText(pdf, a.MarketOpportunity.MarketAnalysis)
	pdf.Ln(3)

	// Competitive landscape
	sectionTitle(pdf, "Competitive Landscape")
	bulletList(pdf, []string{
		fmt.Sprintf("%d direct competitors", a.Competitive.DirectCompetitors),
		fmt.Sprintf("%d indirect competitors", a.Competitive.IndirectCompetitors),
		"Market is " + strings.ToLower(a.Competitive.MarketShare),
	})
	subTitle(pdf, "Key Competitors")
	bulletList(pdf, a.Competitive.KeyCompetitors)
	subTitle(pdf, "Key Opportunities")
	bulletList(pdf, a.Competitive.Opportunities)
	subTitle(pdf, "Competitive Analysis")
	bodyText(pdf, a.Competitive.CompetitiveAnalysis)
	pdf.Ln(3)

	// Regulatory environment
	sectionTitle(pdf, "Regulatory Environment")
	bodyText(pdf, "Complexity: "+a.Regulatory.Complexity)
	bodyText(pdf, "Estimated compliance time: "+a.Regulatory.TimeToCompliance)
	subTitle(pdf, "Compliance Requirements")
	bulletList(pdf, a.Regulatory.Requirements)
	subTitle(pdf, "Regulatory Analysis")
	bodyText(pdf, a.Regulatory.RegulatoryAnalysis)
	pdf.Ln(3)

	// Go-to-market
	sectionTitle(pdf, "Go-to-Market Strategy (Lean Canvas)")
	subTitle(pdf, "Recommended Channels")
	bulletList(pdf, a.GoToMarket.Channels)
	subTitle(pdf, "Timeline")
	bodyText(pdf, a.GoToMarket.Timeline)
	subTitle(pdf, "Strategy Overview")
	bodyText(pdf, a.GoToMarket.Strategy)
	subTitle(pdf, "Key Milestones")
	bulletList(pdf, a.GoToMarket.KeyMilestones)
	pdf.Ln(3)

	// Financial analysis
	sectionTitle(pdf, "Financial Analysis")
	metricRow(pdf, [][2]string{
		{a.Financial.RevenueProjection, "Revenue Projection"},
		{a.Financial.BreakEvenTime, "Break-even Time"},
		{a.Financial.FundingNeeds, "Funding Needs"},
	})
	subTitle(pdf, "Key Metrics to Track")
	bulletList(pdf, a.Financial.KeyMetrics)
	pdf.Ln(3)

	// Risk assessment
	sectionTitle(pdf, "Risk Assessment")
	lc := levelColor(a.Risks.Level)
	pdf.SetTextColor(lc[0], lc[1], lc[2])
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, a.Risks.Level+" Risk Level", "", 1, "L", false, 0, "")
	pdf.SetTextColor(51, 51, 51)
	subTitle(pdf, "Primary Risks")
	bulletList(pdf, a.Risks.PrimaryRisks)
	subTitle(pdf, "Risk Mitigation")
	bulletList(pdf, a.Risks.Mitigation)
	pdf.Ln(3)

	// Action plan
	sectionTitle(pdf, "Action Plan & Proof of Concept")
	for i, step := range a.Validation.NextSteps {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(8, 6, fmt.Sprintf("%d.", i+1), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, step, "", "L", false)
	}
	pdf.Ln(6)

	// Footer
	pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, "This report was generated using AI-powered business validation analysis.", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("(c) %d BizValidator. All rights reserved.", time.Now().Year()), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetTextColor(colorAccent[0], colorAccent[1], colorAccent[2])
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 9, title, "B", 1, "L", false, 0, "")
	pdf.SetTextColor(51, 51, 51)
	pdf.Ln(1)
}

func subTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
}

func bodyText(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5.5, text, "", "L", false)
}

func bulletList(pdf *fpdf.Fpdf, items []string) {
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.CellFormat(6, 5.5, "-", "", 0, "R", false, 0, "")
		pdf.MultiCell(0, 5.5, item, "", "L", false)
	}
}

func metricRow(pdf *fpdf.Fpdf, metrics [][2]string) {
	colWidth := 170.0 / float64(len(metrics))
	y := pdf.GetY()
	for i, m := range metrics {
		x := 20 + colWidth*float64(i)
		pdf.SetXY(x, y)
		pdf.SetTextColor(colorAccent[0], colorAccent[1], colorAccent[2])
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(colWidth-4, 5, m[0], "", "C", false)
		pdf.SetXY(x, pdf.GetY())
		pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
		pdf.SetFont("Helvetica", "", 8)
		pdf.MultiCell(colWidth-4, 4, m[1], "", "C", false)
	}
	pdf.SetTextColor(51, 51, 51)
	pdf.SetY(y + 16)
}
