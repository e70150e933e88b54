package models

import (
	"time"

	"github.com/google/uuid"
)

// ResultSet is a fully materialized query result.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// JobStatus is the outcome of a single export job.
type JobStatus string

const (
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// JobResult records what happened to one selected, resolved job.
// Exactly one of RowCount (Succeeded) or Reason (Failed) is meaningful.
type JobResult struct {
	Job      string    `json:"job" yaml:"job"`
	File     string    `json:"file,omitempty" yaml:"file,omitempty"`
	Status   JobStatus `json:"status" yaml:"status"`
	RowCount int       `json:"row_count" yaml:"row_count"`
	Reason   string    `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(job, file string, rows int) JobResult {
	return JobResult{Job: job, File: file, Status: JobSucceeded, RowCount: rows}
}

// Failed builds a failed result from the error that stopped the job.
func Failed(job, file string, err error) JobResult {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return JobResult{Job: job, File: file, Status: JobFailed, Reason: reason}
}

// OK reports whether the job succeeded.
func (r JobResult) OK() bool {
	return r.Status == JobSucceeded
}

// ExportedFile describes one file written by an export run.
type ExportedFile struct {
	Job   string `json:"job" yaml:"job"`
	Name  string `json:"name" yaml:"name"`
	Path  string `json:"path" yaml:"path"`
	Rows  int    `json:"rows" yaml:"rows"`
	Bytes int64  `json:"bytes" yaml:"bytes"`
}

// ExportRun is the complete outcome of one export invocation.
type ExportRun struct {
	ID         uuid.UUID      `json:"id" yaml:"id"`
	Endpoint   string         `json:"endpoint" yaml:"endpoint"`
	Database   string         `json:"database" yaml:"database"`
	OutputDir  string         `json:"output_dir" yaml:"output_dir"`
	StartedAt  time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time      `json:"finished_at" yaml:"finished_at"`
	Results    []JobResult    `json:"results" yaml:"results"`
	Skipped    []string       `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Files      []ExportedFile `json:"files" yaml:"files"`
	Selected   int            `json:"selected" yaml:"selected"`
	Attempted  int            `json:"attempted" yaml:"attempted"`
	Succeeded  int            `json:"succeeded" yaml:"succeeded"`
	Failed     int            `json:"failed" yaml:"failed"`
	TotalRows  int            `json:"total_rows" yaml:"total_rows"`
	Cancelled  bool           `json:"cancelled" yaml:"cancelled"`
}

// NewExportRun starts an empty run record.
func NewExportRun(endpoint, database, outputDir string, selected int, now time.Time) *ExportRun {
	return &ExportRun{
		ID:        uuid.New(),
		Endpoint:  endpoint,
		Database:  database,
		OutputDir: outputDir,
		StartedAt: now,
		Results:   make([]JobResult, 0, selected),
		Files:     make([]ExportedFile, 0, selected),
		Selected:  selected,
	}
}

// Record appends a job result and updates the counters.
func (r *ExportRun) Record(result JobResult) {
	r.Results = append(r.Results, result)
	r.Attempted++
	if result.OK() {
		r.Succeeded++
		r.TotalRows += result.RowCount
		return
	}
	r.Failed++
}

// Complete reports whether every selected job was exported.
// Skipped, failed, or cancelled jobs make a run incomplete.
func (r *ExportRun) Complete() bool {
	return !r.Cancelled && r.Failed == 0 && r.Succeeded == r.Selected
}

// Duration is the wall time of the run; zero until finished.
func (r *ExportRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
