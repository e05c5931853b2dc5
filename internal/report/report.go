// Package report assembles a completed validation record, its analysis, and
// the captured lead identity into a downloadable PDF document.
package report

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bizvalidator/internal/model"
	"github.com/sells-group/bizvalidator/internal/store"
)

var (
	// ErrAnalysisNotReady means the record has no analysis attempt yet.
	ErrAnalysisNotReady = eris.New("report: analysis not available")
	// ErrAnalysisInvalid means the stored payload is the failure sentinel.
	ErrAnalysisInvalid = eris.New("report: analysis is a failed attempt")
	// ErrLeadDataRequired means the caller did not supply the minimum lead
	// identity for the cover page.
	ErrLeadDataRequired = eris.New("report: lead data is required")
)

// LeadInfo is the lead identity printed on the report. It is supplied fresh
// on every call, never persisted.
type LeadInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company"`
}

// Data is the fully assembled input for rendering.
type Data struct {
	Record   *model.ValidationRecord
	Analysis *model.Analysis
	Lead     LeadInfo
}

// Service assembles and renders validation reports on demand. There is no
// caching: every call re-renders from current record state, so a re-download
// after re-analysis reflects the latest analysis.
type Service struct {
	store store.Store
}

// NewService creates a report service over the given store.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Assemble loads the record and checks every download precondition,
// returning the render-ready data.
func (s *Service) Assemble(ctx context.Context, id int64, lead LeadInfo) (*Data, error) {
	if lead.FirstName == "" || lead.LastName == "" {
		return nil, ErrLeadDataRequired
	}

	rec, err := s.store.GetValidation(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.AnalysisResult == nil {
		return nil, ErrAnalysisNotReady
	}

	analysis, fallback, err := model.ParseAnalysisResult(*rec.AnalysisResult)
	if err != nil {
		return nil, eris.Wrap(err, "report: parse analysis")
	}
	if fallback != nil {
		return nil, ErrAnalysisInvalid
	}

	return &Data{Record: rec, Analysis: analysis, Lead: lead}, nil
}

// Render assembles and renders the report, returning the PDF bytes and the
// suggested filename.
func (s *Service) Render(ctx context.Context, id int64, lead LeadInfo) ([]byte, string, error) {
	data, err := s.Assemble(ctx, id, lead)
	if err != nil {
		return nil, "", err
	}

	pdf, err := renderPDF(data)
	if err != nil {
		return nil, "", eris.Wrap(err, "report: render pdf")
	}

	return pdf, fmt.Sprintf("business-validation-report-%d.pdf", id), nil
}
