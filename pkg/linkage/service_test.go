package linkage

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/repositories/linkagerun"
	"github.com/Ramsey-B/fern/pkg/models"
)

// fakeRunDB answers run lookups in memory so Cancel can be tested without
// a database.
type fakeRunDB struct {
	run models.LinkageRun
}

func (f *fakeRunDB) GetContext(_ context.Context, dest any, _ string, _ ...any) error {
	if run, ok := dest.(*models.LinkageRun); ok {
		*run = f.run
		return nil
	}
	return sql.ErrNoRows
}

func (f *fakeRunDB) SelectContext(_ context.Context, _ any, _ string, _ ...any) error {
	return nil
}

func (f *fakeRunDB) ExecContext(_ context.Context, _ string, _ ...any) (sql.Result, error) {
	return nil, nil
}

func (f *fakeRunDB) QueryxContext(_ context.Context, _ string, _ ...any) (*sqlx.Rows, error) {
	return nil, nil
}

func (f *fakeRunDB) NamedExecContext(_ context.Context, _ string, _ any) (sql.Result, error) {
	return nil, nil
}

func (f *fakeRunDB) BeginTxx(_ context.Context, _ *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, nil
}

func (f *fakeRunDB) PingContext(_ context.Context) error { return nil }

func (f *fakeRunDB) Close() error { return nil }

func newCancelService(run models.LinkageRun) *Service {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	runs := linkagerun.NewRepository(&fakeRunDB{run: run}, logger)
	return NewService(nil, runs, nil, nil, nil, nil, logger)
}

func TestCancelAbortsInFlightRun(t *testing.T) {
	stored := models.LinkageRun{ID: "run-1", TenantID: "t1", Status: models.RunStatusRunning}
	svc := newCancelService(stored)

	runCtx, cancel := context.WithCancel(context.Background())
	svc.track("run-1", cancel)
	defer svc.untrack("run-1")

	run, err := svc.Cancel(context.Background(), "t1", "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Error(t, runCtx.Err(), "the tracked run context must be cancelled")
}

func TestCancelFinishedRunConflicts(t *testing.T) {
	stored := models.LinkageRun{ID: "run-1", TenantID: "t1", Status: models.RunStatusCompleted}
	svc := newCancelService(stored)

	_, err := svc.Cancel(context.Background(), "t1", "run-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestCollectLinksPairing(t *testing.T) {
	a := &models.Assignment{
		Mode: models.LinkageModePairing,
		Links: []models.Link{
			{Pair: models.CandidatePair{AID: "a1", BID: "b1"}, Score: 3.5, Decision: models.DecisionMatch},
			{Pair: models.CandidatePair{AID: "a2", BID: "b9"}, Score: 1.2, Decision: models.DecisionPossibleMatch},
		},
	}

	rows := collectLinks(a)
	require.Len(t, rows, 2)
	assert.Equal(t, "a1", rows[0].AID)
	assert.Equal(t, "b1", rows[0].BID)
	assert.Equal(t, 3.5, rows[0].Score)
	assert.Equal(t, models.DecisionMatch, rows[0].Decision)
	assert.Nil(t, rows[0].ClusterID)
	assert.Equal(t, models.DecisionPossibleMatch, rows[1].Decision)
}

func TestCollectLinksClustering(t *testing.T) {
	a := &models.Assignment{
		Mode: models.LinkageModeClustering,
		Clusters: []models.Cluster{
			{RecordIDs: []string{"r1", "r2", "r3"}},
			{RecordIDs: []string{"r9"}},
		},
	}

	rows := collectLinks(a)
	require.Len(t, rows, 2, "singleton clusters contribute no edges")
	for _, row := range rows {
		assert.Equal(t, "r1", row.AID)
		require.NotNil(t, row.ClusterID)
		assert.Equal(t, "r1", *row.ClusterID)
	}
	assert.Equal(t, "r2", rows[0].BID)
	assert.Equal(t, "r3", rows[1].BID)
}

func TestCollectLinksNil(t *testing.T) {
	assert.Empty(t, collectLinks(nil))
}
