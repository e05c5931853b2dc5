package model

import "strings"

// Lead holds the contact fields captured before a report download. Leads
// are not persisted locally; the CRM is the system of record and the email
// is the dedup identity key.
type Lead struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Company       string `json:"company"`
	JobTitle      string `json:"jobTitle"`
	Phone         string `json:"phone"`
	Country       string `json:"country"`
	Industry      string `json:"industry"`
	CompanySize   string `json:"companySize"`
	BusinessGoals string `json:"businessGoals,omitempty"`
	BusinessIdea  string `json:"businessIdea"`
	Source        string `json:"source"`
}

// NormalizedEmail returns the email lowercased and trimmed, the form used
// for dedup comparison against the CRM.
func (l Lead) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(l.Email))
}

// FieldErrors returns a map of field name to problem for any missing
// required field, nil when the lead is valid. BusinessGoals is optional.
func (l Lead) FieldErrors() map[string]string {
	errs := make(map[string]string)
	for field, value := range map[string]string{
		"firstName":    l.FirstName,
		"lastName":     l.LastName,
		"company":      l.Company,
		"jobTitle":     l.JobTitle,
		"phone":        l.Phone,
		"country":      l.Country,
		"industry":     l.Industry,
		"companySize":  l.CompanySize,
		"businessIdea": l.BusinessIdea,
		"source":       l.Source,
	} {
		if value == "" {
			errs[field] = "required"
		}
	}
	if l.NormalizedEmail() == "" || !strings.Contains(l.Email, "@") {
		errs["email"] = "valid email required"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
