// Package export runs catalog jobs against a session and writes one
// delimited text file per job.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-export/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-export/pkg/catalog"
	"github.com/ekaya-inc/ekaya-export/pkg/logging"
	"github.com/ekaya-inc/ekaya-export/pkg/models"
)

// Session is the part of *session.Session a run needs.
type Session interface {
	BeginExport() (release func(), err error)
	Execute(ctx context.Context, query string) (*models.ResultSet, error)
	Endpoint() models.Endpoint
	Database() string
}

// Request selects the jobs to run, in order, and where to write them.
type Request struct {
	Jobs      []string
	OutputDir string
}

// Pipeline executes export requests.
type Pipeline struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a pipeline over cat; a nil catalog means catalog.Default().
func New(cat *catalog.Catalog, logger *zap.Logger) *Pipeline {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Pipeline{
		catalog: cat,
		logger:  logging.OrNop(logger).Named("export"),
		now:     time.Now,
	}
}

// Run executes req.Jobs one after another. A job that fails to run or to
// write is recorded as failed and the run continues; names missing from
// the catalog are skipped. Cancellation is honoured between jobs: the
// partial run is returned together with ctx.Err().
//
// Errors returned before any job runs (no jobs, session not ready, output
// directory not creatable) come with a nil run.
func (p *Pipeline) Run(ctx context.Context, sess Session, req Request, sink ProgressSink) (*models.ExportRun, error) {
	if len(req.Jobs) == 0 {
		return nil, apperrors.ErrNoJobsSelected
	}
	if sink == nil {
		sink = Discard
	}

	release, err := sess.BeginExport()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	total := len(req.Jobs)
	run := models.NewExportRun(sess.Endpoint().String(), sess.Database(), req.OutputDir, total, p.now())
	logger := p.logger.With(zap.String("run_id", run.ID.String()))

	logger.Info("Export started",
		zap.String("endpoint", run.Endpoint),
		zap.String("database", run.Database),
		zap.String("output_dir", run.OutputDir),
		zap.Int("jobs", total))

	for i, name := range req.Jobs {
		if ctx.Err() != nil {
			run.Cancelled = true
			break
		}

		job, ok := p.catalog.Lookup(name)
		if !ok {
			logger.Warn("Job not in catalog, skipping", zap.String("job", name))
			run.Skipped = append(run.Skipped, name)
			continue
		}

		sink.Progress(i*100/total, fmt.Sprintf("exporting %s (%d/%d)", job.Name, i+1, total))
		p.runJob(ctx, logger, sess, job, run)
	}
	if !run.Cancelled && ctx.Err() != nil {
		// The last job was interrupted; nothing was left to skip.
		run.Cancelled = true
	}

	run.FinishedAt = p.now()

	if run.Cancelled {
		sink.Progress(100, "export cancelled")
		logger.Warn("Export cancelled",
			zap.Int("attempted", run.Attempted),
			zap.Int("selected", run.Selected))
		return run, ctx.Err()
	}

	sink.Progress(100, "export completed")
	logger.Info("Export finished",
		zap.Int("succeeded", run.Succeeded),
		zap.Int("failed", run.Failed),
		zap.Int("skipped", len(run.Skipped)),
		zap.Int("rows", run.TotalRows),
		zap.Duration("elapsed", run.Duration()))
	return run, nil
}

func (p *Pipeline) runJob(ctx context.Context, logger *zap.Logger, sess Session, job catalog.Job, run *models.ExportRun) {
	fileName := job.FileName()
	path := filepath.Join(run.OutputDir, fileName)
	start := time.Now()

	logger.Info("Executing job query",
		zap.String("job", job.Name),
		zap.String("query", logging.SanitizeQuery(job.Query)))

	rs, err := sess.Execute(ctx, job.Query)
	if err != nil {
		logger.Error("Job query failed",
			zap.String("job", job.Name),
			zap.String("error", logging.SanitizeError(err)))
		run.Record(models.Failed(job.Name, fileName, err))
		return
	}

	written, err := writeResultSet(path, rs)
	if err != nil {
		logger.Error("Job file write failed",
			zap.String("job", job.Name),
			zap.String("path", path),
			zap.Error(err))
		run.Record(models.Failed(job.Name, fileName, err))
		return
	}

	rows := len(rs.Rows)
	run.Record(models.Succeeded(job.Name, fileName, rows))
	run.Files = append(run.Files, models.ExportedFile{
		Job:   job.Name,
		Name:  fileName,
		Path:  path,
		Rows:  rows,
		Bytes: written,
	})

	logger.Info("Job exported",
		zap.String("job", job.Name),
		zap.String("file", fileName),
		zap.Int("rows", rows),
		zap.Int64("bytes", written),
		zap.Duration("elapsed", time.Since(start)))
}
