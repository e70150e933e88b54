// Package catalog holds the fixed set of export jobs: each job has a display
// name, a group, and a baked SQL Server query. No query takes caller input.
package catalog

import (
	"fmt"
	"strings"
	"sync"

	sqlcheck "github.com/ekaya-inc/ekaya-export/pkg/sql"
)

// FileExtension is appended to every derived output file name.
const FileExtension = ".txt"

// Group is the logical section a job belongs to. Groups only drive default
// selection in front ends; they do not change how a job runs.
type Group string

const (
	GroupEntities  Group = "entities"
	GroupRelations Group = "relations"
)

// Job is one named extraction task.
type Job struct {
	Name  string
	Group Group
	Query string
}

// FileName returns the output file name for the job.
func (j Job) FileName() string {
	return FileName(j.Name)
}

var fileNameReplacer = strings.NewReplacer(" ", "_", "-", "_", "(", "", ")", "")

// FileName derives an output file name from a job name: lower-cased, spaces
// and hyphens replaced by underscores, parentheses removed, plus ".txt".
func FileName(jobName string) string {
	return fileNameReplacer.Replace(strings.ToLower(jobName)) + FileExtension
}

// Catalog is an immutable, ordered set of jobs.
type Catalog struct {
	jobs   []Job
	byName map[string]int
}

// New builds a catalog, rejecting empty entries, duplicate names, names
// whose derived file names collide, and queries whose last statement does
// not return rows. A query may be a batch; it is stored normalized.
func New(jobs ...Job) (*Catalog, error) {
	c := &Catalog{
		jobs:   make([]Job, 0, len(jobs)),
		byName: make(map[string]int, len(jobs)),
	}
	files := make(map[string]string, len(jobs))

	for _, job := range jobs {
		if strings.TrimSpace(job.Name) == "" {
			return nil, fmt.Errorf("job with empty name")
		}
		if strings.TrimSpace(job.Query) == "" {
			return nil, fmt.Errorf("job %q has an empty query", job.Name)
		}
		query, err := sqlcheck.ValidateBatch(job.Query)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", job.Name, err)
		}
		job.Query = query
		if _, exists := c.byName[job.Name]; exists {
			return nil, fmt.Errorf("duplicate job name %q", job.Name)
		}
		file := job.FileName()
		if other, exists := files[file]; exists {
			return nil, fmt.Errorf("jobs %q and %q both write %s", other, job.Name, file)
		}
		files[file] = job.Name
		c.byName[job.Name] = len(c.jobs)
		c.jobs = append(c.jobs, job)
	}

	return c, nil
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// Default returns the built-in catalog. It panics if the built-in job table
// is inconsistent, which the package tests rule out.
func Default() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := New(builtinJobs()...)
		if err != nil {
			panic(fmt.Sprintf("catalog: invalid built-in catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Lookup resolves a job by its exact name. A miss is not an error.
func (c *Catalog) Lookup(name string) (Job, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Job{}, false
	}
	return c.jobs[i], true
}

// Jobs returns all jobs in catalog order.
func (c *Catalog) Jobs() []Job {
	out := make([]Job, len(c.jobs))
	copy(out, c.jobs)
	return out
}

// Group returns the jobs of one group in catalog order.
func (c *Catalog) Group(g Group) []Job {
	var out []Job
	for _, job := range c.jobs {
		if job.Group == g {
			out = append(out, job)
		}
	}
	return out
}

// Names returns job names, optionally restricted to the given groups.
func (c *Catalog) Names(groups ...Group) []string {
	out := make([]string, 0, len(c.jobs))
	for _, job := range c.jobs {
		if len(groups) > 0 && !containsGroup(groups, job.Group) {
			continue
		}
		out = append(out, job.Name)
	}
	return out
}

// Groups returns the groups present in the catalog, in first-seen order.
func (c *Catalog) Groups() []Group {
	var out []Group
	for _, job := range c.jobs {
		if !containsGroup(out, job.Group) {
			out = append(out, job.Group)
		}
	}
	return out
}

// Len returns the number of jobs.
func (c *Catalog) Len() int {
	return len(c.jobs)
}

// ParseGroup accepts a group name, case-insensitively.
func ParseGroup(s string) (Group, error) {
	switch Group(strings.ToLower(strings.TrimSpace(s))) {
	case GroupEntities:
		return GroupEntities, nil
	case GroupRelations:
		return GroupRelations, nil
	}
	return "", fmt.Errorf("unknown job group %q (want %s or %s)", s, GroupEntities, GroupRelations)
}

func containsGroup(groups []Group, g Group) bool {
	for _, x := range groups {
		if x == g {
			return true
		}
	}
	return false
}
