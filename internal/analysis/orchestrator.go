package analysis

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/bizvalidator/internal/model"
	"github.com/sells-group/bizvalidator/internal/store"
)

// ErrAlreadyAnalyzed is returned when analyze is triggered on a ready record
// without the force flag. Re-analyzing a successful result must be an
// explicit decision, not an accidental downgrade.
var ErrAlreadyAnalyzed = eris.New("analysis: record already analyzed")

// fallbackMessage is the user-facing text stored in the failure sentinel.
const fallbackMessage = "Analysis temporarily unavailable. Please try again later."

// Orchestrator transitions validation records from pending to ready or
// failed. Concurrent triggers for the same id share a single generator call.
type Orchestrator struct {
	store     store.Store
	generator Generator
	flights   singleflight.Group
}

// NewOrchestrator creates an orchestrator over the given store and generator.
func NewOrchestrator(st store.Store, gen Generator) *Orchestrator {
	return &Orchestrator{store: st, generator: gen}
}

// Analyze runs analysis for the record with the given id and persists the
// outcome. On generator failure the fallback sentinel is written so the
// record transitions to failed rather than staying pending, and the error is
// returned for the caller to report.
//
// A ready record is not re-analyzed unless force is set. Failed and pending
// records may always be retried; a retry overwrites the previous result.
func (o *Orchestrator) Analyze(ctx context.Context, id int64, force bool) (*model.ValidationRecord, error) {
	rec, err := o.store.GetValidation(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == model.StatusReady && !force {
		return nil, ErrAlreadyAnalyzed
	}

	type outcome struct {
		rec *model.ValidationRecord
		err error
	}

	// Single flight per id: duplicate triggers while a call is in progress
	// wait for the shared result instead of spending a second generation.
	v, err, shared := o.flights.Do(strconv.FormatInt(id, 10), func() (any, error) {
		updated, genErr := o.run(ctx, rec)
		return outcome{rec: updated, err: genErr}, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "analysis: single flight")
	}
	if shared {
		zap.L().Debug("analysis: joined in-flight attempt", zap.Int64("validation_id", id))
	}

	out := v.(outcome)
	return out.rec, out.err
}

// run performs one generation attempt and persists either the serialized
// analysis or the fallback sentinel. The store write pairs payload and
// status so the two can never disagree.
func (o *Orchestrator) run(ctx context.Context, rec *model.ValidationRecord) (*model.ValidationRecord, error) {
	analysis, genErr := o.generator.Generate(ctx, rec)
	if genErr != nil {
		zap.L().Error("analysis generation failed",
			zap.Int64("validation_id", rec.ID),
			zap.Error(genErr),
		)
		updated, err := o.store.UpdateValidation(ctx, rec.ID, store.AnalysisUpdate{
			AnalysisResult: model.FallbackPayload(fallbackMessage),
			Status:         model.StatusFailed,
		})
		if err != nil {
			return nil, eris.Wrap(err, "analysis: persist fallback")
		}
		return updated, genErr
	}

	payload, err := json.Marshal(analysis)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: marshal result")
	}

	updated, err := o.store.UpdateValidation(ctx, rec.ID, store.AnalysisUpdate{
		AnalysisResult: string(payload),
		Status:         model.StatusReady,
	})
	if err != nil {
		return nil, eris.Wrap(err, "analysis: persist result")
	}

	zap.L().Info("analysis complete",
		zap.Int64("validation_id", rec.ID),
		zap.Int("score", analysis.Validation.Score),
	)
	return updated, nil
}
