// Package linkage orchestrates engine runs over persisted projects
package linkage

import (
	"context"
	"net/http"
	"sync"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/linkageproject"
	"github.com/Ramsey-B/fern/internal/repositories/linkagerun"
	"github.com/Ramsey-B/fern/internal/repositories/record"
	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/engine"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Service executes linkage projects and persists their output
type Service struct {
	projects *linkageproject.Repository
	runs     *linkagerun.Repository
	records  *record.Repository
	engine   *engine.Engine
	emitter  *events.Emitter
	links    *graph.LinkService // optional graph mirror
	logger   ectologger.Logger

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// NewService creates a new linkage service. emitter and links may be nil.
func NewService(
	projects *linkageproject.Repository,
	runs *linkagerun.Repository,
	records *record.Repository,
	eng *engine.Engine,
	emitter *events.Emitter,
	links *graph.LinkService,
	logger ectologger.Logger,
) *Service {
	return &Service{
		projects: projects,
		runs:     runs,
		records:  records,
		engine:   eng,
		emitter:  emitter,
		links:    links,
		logger:   logger,
		active:   make(map[string]context.CancelFunc),
	}
}

// StartRun executes a project synchronously and returns the finished run.
// Engine failures are recorded on the run row rather than lost to the caller.
func (s *Service) StartRun(ctx context.Context, tenantID, projectID string) (*models.LinkageRun, error) {
	ctx, span := tracing.StartSpan(ctx, "linkage.Service.StartRun")
	defer span.End()

	project, err := s.projects.Get(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	if !project.IsActive {
		return nil, httperror.NewHTTPError(http.StatusConflict, "linkage project is not active")
	}

	cfg, err := project.ParseConfig()
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusUnprocessableEntity, "linkage project config is invalid")
	}
	mode := cfg.Mode
	if mode == "" {
		mode = models.LinkageModePairing
	}

	run, err := s.runs.Create(ctx, tenantID, projectID, string(mode))
	if err != nil {
		return nil, err
	}
	_ = s.emitter.EmitRunEvent(ctx, events.EventTypeRunStarted, run)

	recs, err := s.records.ListAll(ctx, tenantID, projectID)
	if err != nil {
		return nil, s.fail(ctx, tenantID, run, err)
	}
	run.RecordCount = len(recs)
	if err := s.runs.SetRunning(ctx, tenantID, run.ID, len(recs)); err != nil {
		return nil, err
	}

	// The engine gets its own cancelable context so Cancel can reach an
	// in-flight run from another request while the run row stays writable.
	runCtx, cancel := context.WithCancel(ctx)
	s.track(run.ID, cancel)
	defer s.untrack(run.ID)

	result, err := s.engine.Run(runCtx, engine.RunInput{Records: recs, Config: cfg})
	if err != nil {
		if runCtx.Err() != nil {
			run.Status = models.RunStatusCancelled
		}
		return nil, s.fail(ctx, tenantID, run, err)
	}

	return s.complete(ctx, tenantID, run, result)
}

// Cancel aborts an in-flight run for the tenant. Finished runs report a
// conflict since there is nothing left to stop.
func (s *Service) Cancel(ctx context.Context, tenantID, runID string) (*models.LinkageRun, error) {
	ctx, span := tracing.StartSpan(ctx, "linkage.Service.Cancel")
	defer span.End()

	run, err := s.runs.Get(ctx, tenantID, runID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	cancel, ok := s.active[runID]
	s.mu.Unlock()
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusConflict, "linkage run %s is not in flight", runID)
	}

	cancel()
	s.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id": runID,
	}).Info("Cancelled linkage run")
	return run, nil
}

func (s *Service) track(id string, cancel context.CancelFunc) {
	s.mu.Lock()
	s.active[id] = cancel
	s.mu.Unlock()
}

func (s *Service) untrack(id string) {
	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()
}

func (s *Service) fail(ctx context.Context, tenantID string, run *models.LinkageRun, cause error) error {
	if run.Status != models.RunStatusCancelled {
		run.Status = models.RunStatusFailed
	}
	msg := cause.Error()
	run.Error = &msg

	if err := s.runs.Complete(ctx, tenantID, run); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"run_id": run.ID,
		}).Error("Failed to record run failure")
	}
	_ = s.emitter.EmitRunEvent(ctx, events.EventTypeRunFailed, run)
	return cause
}

func (s *Service) complete(ctx context.Context, tenantID string, run *models.LinkageRun, result *engine.RunResult) (*models.LinkageRun, error) {
	linkRows := collectLinks(result.Assignment)

	run.Status = models.RunStatusCompleted
	run.PairCount = result.PairCount
	run.LinkCount = len(result.Assignment.Links)
	run.ClusterCount = len(result.Assignment.Clusters)
	run.SkippedBlocks = len(result.Skipped)

	if err := s.runs.SaveLinks(ctx, tenantID, run.ID, linkRows); err != nil {
		return nil, s.fail(ctx, tenantID, run, err)
	}
	if err := s.runs.SaveSkippedBlocks(ctx, tenantID, run.ID, result.Skipped); err != nil {
		return nil, s.fail(ctx, tenantID, run, err)
	}
	if err := s.runs.Complete(ctx, tenantID, run); err != nil {
		return nil, err
	}

	_ = s.emitter.EmitRunEvent(ctx, events.EventTypeRunCompleted, run)
	_ = s.emitter.EmitLinks(ctx, run, linkRows)

	if s.links != nil {
		// The relational store already holds the result; a graph mirror
		// failure is logged but does not fail the run.
		if err := s.links.SaveRunLinks(ctx, run, linkRows); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"run_id": run.ID,
			}).Error("Failed to mirror run links to graph")
		}
	}

	return run, nil
}

// collectLinks flattens an assignment into persistable rows. In clustering
// mode each cluster contributes its membership edges against the lowest id.
func collectLinks(a *models.Assignment) []models.LinkResult {
	if a == nil {
		return nil
	}

	if a.Mode == models.LinkageModeClustering {
		var rows []models.LinkResult
		for i := range a.Clusters {
			cluster := a.Clusters[i]
			if len(cluster.RecordIDs) < 2 {
				continue
			}
			clusterID := cluster.RecordIDs[0]
			for _, id := range cluster.RecordIDs[1:] {
				cid := clusterID
				rows = append(rows, models.LinkResult{
					AID:       clusterID,
					BID:       id,
					Decision:  models.DecisionMatch,
					ClusterID: &cid,
				})
			}
		}
		return rows
	}

	rows := make([]models.LinkResult, 0, len(a.Links))
	for _, link := range a.Links {
		rows = append(rows, models.LinkResult{
			AID:      link.Pair.AID,
			BID:      link.Pair.BID,
			Score:    link.Score,
			Decision: link.Decision,
		})
	}
	return rows
}
