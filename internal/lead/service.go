// Package lead captures sales leads into the CRM, deduplicating by email.
package lead

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bizvalidator/internal/model"
	"github.com/sells-group/bizvalidator/pkg/hubspot"
)

// CaptureResult reports the outcome of a lead capture.
type CaptureResult struct {
	LeadID    string // local id for this capture event
	HubSpotID string
	IsNew     bool
}

// Service captures leads against the CRM. The local system is a
// pass-through with dedup logic, not a cache.
type Service struct {
	crm hubspot.Client
}

// NewService creates a lead capture service over the given CRM client.
func NewService(crm hubspot.Client) *Service {
	return &Service{crm: crm}
}

// Capture ensures at most one CRM contact exists for the lead's email. An
// existing contact is treated as canonical: its properties are refreshed and
// no new contact is created. Lookup failures degrade to attempting creation,
// since a create failure will still surface. Any returned error means the
// lead was not recorded in the CRM; silently dropping a sales lead is
// unacceptable, so callers must propagate it.
func (s *Service) Capture(ctx context.Context, l model.Lead) (*CaptureResult, error) {
	email := l.NormalizedEmail()

	existing, err := s.crm.SearchContactByEmail(ctx, email)
	if err != nil {
		zap.L().Warn("lead: contact lookup failed, attempting create",
			zap.String("email", email),
			zap.Error(err),
		)
		existing = nil
	}

	if existing != nil {
		if _, err := s.crm.UpdateContact(ctx, existing.ID, contactProperties(l, email)); err != nil {
			// The existing contact is still canonical; a stale refresh is
			// not worth failing the capture over.
			zap.L().Warn("lead: contact refresh failed",
				zap.String("hubspot_id", existing.ID),
				zap.Error(err),
			)
		}
		zap.L().Info("lead already exists",
			zap.String("email", email),
			zap.String("hubspot_id", existing.ID),
		)
		return &CaptureResult{
			LeadID:    uuid.NewString(),
			HubSpotID: existing.ID,
			IsNew:     false,
		}, nil
	}

	created, err := s.crm.CreateContact(ctx, contactProperties(l, email))
	if err != nil {
		return nil, eris.Wrap(err, "lead: create contact")
	}

	zap.L().Info("lead created",
		zap.String("email", email),
		zap.String("hubspot_id", created.ID),
	)
	return &CaptureResult{
		LeadID:    uuid.NewString(),
		HubSpotID: created.ID,
		IsNew:     true,
	}, nil
}

// contactProperties maps lead fields onto default HubSpot contact
// properties. Only properties that exist in every portal are used.
func contactProperties(l model.Lead, email string) map[string]string {
	return map[string]string{
		"firstname":      l.FirstName,
		"lastname":       l.LastName,
		"email":          email,
		"company":        l.Company,
		"jobtitle":       l.JobTitle,
		"phone":          l.Phone,
		"country":        l.Country,
		"industry":       l.Industry,
		"lifecyclestage": "lead",
		"hs_lead_status": "NEW",
	}
}
