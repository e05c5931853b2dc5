// Package store provides persistence for validation records and users.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bizvalidator/internal/model"
)

// ErrNotFound is returned when a record or user id does not resolve.
var ErrNotFound = eris.New("store: not found")

// AnalysisUpdate carries the analysis outcome for a record. Result and
// Status are written together in a single atomic update so stored state and
// payload can never disagree.
type AnalysisUpdate struct {
	AnalysisResult string
	Status         model.AnalysisStatus
}

// Store defines the persistence interface for the validation lifecycle.
type Store interface {
	// Validation records
	CreateValidation(ctx context.Context, in model.ValidationInput) (*model.ValidationRecord, error)
	GetValidation(ctx context.Context, id int64) (*model.ValidationRecord, error)
	ListValidations(ctx context.Context) ([]model.ValidationRecord, error)
	UpdateValidation(ctx context.Context, id int64, upd AnalysisUpdate) (*model.ValidationRecord, error)

	// Users
	CreateUser(ctx context.Context, username, password string) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
