package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/agenthands/weft/internal/config"
	"github.com/agenthands/weft/internal/core"
	"github.com/agenthands/weft/internal/core/extraction"
	"github.com/agenthands/weft/internal/core/model"
	"github.com/agenthands/weft/internal/core/terms"
	"github.com/agenthands/weft/internal/driver"
	"github.com/agenthands/weft/internal/llm"
)

// runFlags are shared by the commands that run a batch.
type runFlags struct {
	kinds             []string
	workers           int
	shadow            bool
	markUnannotatable bool
	compactIDs        bool
	soso              bool
}

func (f *runFlags) apply(cfg *config.Config, changed func(string) bool) {
	if len(f.kinds) > 0 {
		cfg.Annotate.Kinds = f.kinds
	}
	if changed("workers") {
		cfg.Concurrency.Documents = f.workers
	}
	if changed("shadow") {
		cfg.Annotate.Shadow = f.shadow
	}
	if changed("mark-unannotatable") {
		cfg.Annotate.MarkUnannotatable = f.markUnannotatable
	}
	if changed("compact-ids") {
		cfg.Annotate.CompactIDs = f.compactIDs
	}
	if changed("soso") {
		cfg.SOSO.Annotate = f.soso
	}
}

// pipeline owns the resources a batch run opens.
type pipeline struct {
	annotator *core.Annotator
	closers   []func() error
}

func (p *pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i]())
	}
	return errors.Join(errs...)
}

func (a *app) needsLLM(kinds []model.Kind) bool {
	if a.cfg.Resolver.BioPortal.Rerank || (a.cfg.Memgraph.Enabled && a.cfg.Memgraph.Embed) {
		return true
	}
	for _, k := range kinds {
		if a.cfg.Backend(k) == model.BackendLLM {
			return true
		}
	}
	return false
}

// buildPipeline wires an annotator around source. With resolve set, source
// is an Extractor built from the configured resolvers and source is ignored.
func (a *app) buildPipeline(ctx context.Context, source extraction.Source, resolve bool) (*pipeline, error) {
	cfg := a.cfg
	kinds, err := cfg.Kinds()
	if err != nil {
		return nil, err
	}
	p := &pipeline{}

	var gen llm.LLMClient
	var embedder llm.EmbedderClient
	if resolve && a.needsLLM(kinds) || cfg.Memgraph.Enabled && cfg.Memgraph.Embed {
		gen, embedder, err = llm.NewClient(ctx, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to create llm client: %w", err)
		}
		if c, ok := gen.(interface{ Close() error }); ok {
			p.closers = append(p.closers, c.Close)
		}
	}

	var cache terms.Cache
	if resolve {
		var closeCache func() error
		cache, closeCache, err = terms.NewCache(ctx, cfg.Cache)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.closers = append(p.closers, closeCache)

		factory := terms.NewFactory(cfg, gen, cache, a.logger)
		resolvers, err := factory.Resolvers(kinds)
		if err != nil {
			p.Close()
			return nil, err
		}
		ex := extraction.NewExtractor(kinds, resolvers, a.logger)
		ex.Author = cfg.Annotate.Author
		source = ex
	}

	ann := core.NewAnnotator(source, a.logger)
	ann.Cache = cache
	ann.Workers = cfg.Concurrency.Documents
	ann.Shadow = cfg.Annotate.Shadow
	ann.MarkUnannotatable = cfg.Annotate.MarkUnannotatable
	ann.Portal = cfg.Annotate.Portal
	ann.Deduplicator.Sentinel = cfg.Annotate.Sentinel
	ann.Writer.Sentinel = cfg.Annotate.Sentinel

	if cfg.Memgraph.Enabled {
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.closers = append(p.closers, func() error { return d.Close(context.Background()) })
		if err := d.BuildIndices(ctx); err != nil {
			p.Close()
			return nil, err
		}
		if !cfg.Memgraph.Embed {
			embedder = nil
		}
		ann.Publisher = core.NewPublisher(d, embedder, a.logger)
	}

	p.annotator = ann
	return p, nil
}

// runBatch annotates every document in inDir and reports the outcome. It
// fails when any document failed.
func (a *app) runBatch(ctx context.Context, p *pipeline, inDir string, sink *core.DirSink) error {
	if a.cfg.SOSO.Annotate && !sink.SkipDocuments {
		sink.SOSO = a.sosoConverter()
	}
	jobs, err := core.DirJobs(inDir)
	if err != nil {
		return a.printer.Error("Cannot read input directory", err.Error(), nil, nil)
	}
	if len(jobs) == 0 {
		a.printer.Warning("no .xml documents in %s", inDir)
		return nil
	}

	a.printer.Step("processing %d documents with %d worker(s)", len(jobs), p.annotator.Workers)
	report := p.annotator.Batch(ctx, jobs, sink)
	a.printer.Report(report)

	if failed := len(report.Failed()); failed > 0 {
		return a.printer.Error(fmt.Sprintf("%d of %d documents failed", failed, len(jobs)),
			"Successful documents were written; failed ones were left untouched.",
			map[string]string{"Output": sink.Dir}, nil)
	}
	a.printer.Success("wrote results to %s", sink.Dir)
	return nil
}
