package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/agenthands/weft/internal/core/extraction"
	"github.com/agenthands/weft/internal/core/ledger"
	"github.com/agenthands/weft/internal/core/model"
	"github.com/agenthands/weft/internal/eml"
	"github.com/agenthands/weft/internal/soso"
)

// Job is one document of a batch.
type Job interface {
	Name() string
	Load() (*eml.Document, error)
}

// FileJob loads a document from disk.
type FileJob struct {
	Path string
}

func (j FileJob) Name() string {
	return strings.TrimSuffix(filepath.Base(j.Path), filepath.Ext(j.Path))
}

func (j FileJob) Load() (*eml.Document, error) {
	return eml.LoadFile(j.Path)
}

// DirJobs lists every .xml file in dir, sorted by name.
func DirJobs(dir string) ([]Job, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory '%s': %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	jobs := make([]Job, 0, len(names))
	for _, name := range names {
		jobs = append(jobs, FileJob{Path: filepath.Join(dir, name)})
	}
	return jobs, nil
}

// Sink receives every successfully annotated document.
type Sink interface {
	Write(ctx context.Context, doc *eml.Document, res *Result) error
}

// DirSink writes <id>.xml and <id>_annotation_workbook.tsv into Dir, and
// <id>.json when SOSO is set.
type DirSink struct {
	Dir        string
	CompactIDs bool
	// SkipDocuments writes only the workbooks.
	SkipDocuments bool
	SOSO          *soso.Converter
}

func (s *DirSink) Write(ctx context.Context, doc *eml.Document, res *Result) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory '%s': %w", s.Dir, err)
	}
	id := res.Ledger.DocumentID

	var opts []ledger.WriteOption
	if s.CompactIDs {
		opts = append(opts, ledger.WithCompactIDs())
	}
	if err := res.Ledger.WriteFile(extraction.WorkbookPath(s.Dir, id), opts...); err != nil {
		return err
	}
	if s.SkipDocuments {
		return nil
	}
	if err := doc.WriteFile(filepath.Join(s.Dir, id+".xml")); err != nil {
		return err
	}
	if s.SOSO != nil {
		if _, err := s.SOSO.WriteFile(ctx, doc, s.Dir); err != nil {
			return fmt.Errorf("failed to write dataset for %s: %w", id, err)
		}
	}
	return nil
}

// documentIDs hands each document id to the first job that loads it.
type documentIDs struct {
	mu    sync.Mutex
	owner map[string]string
}

func (d *documentIDs) claim(id, job string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.owner == nil {
		d.owner = make(map[string]string)
	}
	if prev, taken := d.owner[id]; taken {
		return fmt.Errorf("%w: %s is already used by %s", model.ErrDuplicateDocument, id, prev)
	}
	d.owner[id] = job
	return nil
}

// Batch annotates every job and reports one outcome per job, in job order.
// A failing document never stops the batch and is not handed to sink.
// Document ids name the sink's outputs, so a job whose id was already loaded
// in this batch fails instead of overwriting the earlier one.
func (a *Annotator) Batch(ctx context.Context, jobs []Job, sink Sink) model.Report {
	outcomes := make([]model.Outcome, len(jobs))
	ids := &documentIDs{}

	if a.Workers <= 1 {
		for i, job := range jobs {
			outcomes[i] = a.process(ctx, job, sink, ids)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(a.Workers)
		for i, job := range jobs {
			g.Go(func() error {
				outcomes[i] = a.process(ctx, job, sink, ids)
				return nil
			})
		}
		_ = g.Wait()
	}

	if a.Cache != nil {
		if err := a.Cache.Purge(context.WithoutCancel(ctx)); err != nil {
			a.Logger.Warn("failed to purge term cache", "error", err)
		}
	}

	report := model.Report{Outcomes: outcomes}
	a.Logger.Info("batch finished",
		"documents", len(jobs),
		"succeeded", len(report.Succeeded()),
		"failed", len(report.Failed()))
	return report
}

func (a *Annotator) process(ctx context.Context, job Job, sink Sink, ids *documentIDs) model.Outcome {
	out := model.Outcome{DocumentID: job.Name()}
	fail := func(err error) model.Outcome {
		out.Kind = model.FailureKind(err)
		out.Message = err.Error()
		a.Logger.Error("document failed", "document", out.DocumentID, "kind", out.Kind, "error", err)
		return out
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	doc, err := job.Load()
	if err != nil {
		return fail(err)
	}
	if id := doc.PackageID(); id != "" {
		out.DocumentID = id
	}
	if err := ids.claim(out.DocumentID, job.Name()); err != nil {
		return fail(err)
	}

	res, err := a.AnnotateDocument(ctx, doc)
	if err != nil {
		return fail(err)
	}
	out.Summary = res.Summary
	if res.Ledger.DocumentID == "" {
		res.Ledger.DocumentID = out.DocumentID
	}
	if sink != nil {
		if err := sink.Write(ctx, doc, res); err != nil {
			return fail(err)
		}
	}
	out.OK = true
	return out
}
