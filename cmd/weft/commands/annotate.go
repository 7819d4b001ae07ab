package commands

import (
	"github.com/spf13/cobra"

	"github.com/agenthands/weft/internal/core"
	"github.com/agenthands/weft/internal/core/extraction"
)

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringSliceVarP(&f.kinds, "kinds", "k", nil, "annotation kinds to run (default from config)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 1, "documents processed concurrently")
	cmd.Flags().BoolVar(&f.shadow, "shadow", false, "rewrite userId values into absolute URLs")
	cmd.Flags().BoolVar(&f.markUnannotatable, "mark-unannotatable", false, "mark elements no term was found for so later runs skip them")
	cmd.Flags().BoolVar(&f.compactIDs, "compact-ids", false, "write compact identifiers in workbooks")
	cmd.Flags().BoolVar(&f.soso, "soso", false, "also write schema.org JSON-LD for every written document")
}

func newAnnotateCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "annotate <eml-dir> <out-dir>",
		Short: "Resolve terms for every document and write the annotated documents",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(a.cfg, cmd.Flags().Changed)
			if err := a.validate(); err != nil {
				return err
			}
			p, err := a.buildPipeline(cmd.Context(), nil, true)
			if err != nil {
				return a.printer.Error("Cannot start annotation", err.Error(), nil, nil)
			}
			defer p.Close()
			return a.runBatch(cmd.Context(), p, args[0], &core.DirSink{Dir: args[1], CompactIDs: a.cfg.Annotate.CompactIDs})
		},
	}
	addRunFlags(cmd, &f)
	return cmd
}

func newWorkbookCmd(a *app) *cobra.Command {
	var f runFlags
	var workbookOnly bool
	cmd := &cobra.Command{
		Use:   "workbook <eml-dir> <out-dir>",
		Short: "Write blank workbooks listing every annotatable element for curation",
		Long: `Write one workbook per document with a row for every element the enabled
kinds target. Elements without an id are given one, and the documents are
written next to the workbooks so the ids persist.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(a.cfg, cmd.Flags().Changed)
			if err := a.validate(); err != nil {
				return err
			}
			kinds, err := a.cfg.Kinds()
			if err != nil {
				return err
			}
			src := &extraction.Blank{Kinds: kinds, Author: a.cfg.Annotate.Author}
			p, err := a.buildPipeline(cmd.Context(), src, false)
			if err != nil {
				return a.printer.Error("Cannot start", err.Error(), nil, nil)
			}
			defer p.Close()
			p.annotator.Deduplicator = nil
			p.annotator.Writer = nil
			p.annotator.Publisher = nil
			return a.runBatch(cmd.Context(), p, args[0], &core.DirSink{
				Dir:           args[1],
				CompactIDs:    a.cfg.Annotate.CompactIDs,
				SkipDocuments: workbookOnly,
			})
		},
	}
	addRunFlags(cmd, &f)
	cmd.Flags().BoolVar(&workbookOnly, "workbook-only", false, "do not write the documents")
	return cmd
}

func newApplyCmd(a *app) *cobra.Command {
	var f runFlags
	var skipMissing bool
	cmd := &cobra.Command{
		Use:   "apply <eml-dir> <workbook-dir> <out-dir>",
		Short: "Write the rows of curated workbooks into their documents",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(a.cfg, cmd.Flags().Changed)
			if err := a.validate(); err != nil {
				return err
			}
			src := &extraction.Workbook{Dir: args[1], Optional: skipMissing}
			p, err := a.buildPipeline(cmd.Context(), src, false)
			if err != nil {
				return a.printer.Error("Cannot start", err.Error(), nil, nil)
			}
			defer p.Close()
			return a.runBatch(cmd.Context(), p, args[0], &core.DirSink{Dir: args[2], CompactIDs: a.cfg.Annotate.CompactIDs})
		},
	}
	addRunFlags(cmd, &f)
	cmd.Flags().BoolVar(&skipMissing, "skip-missing", false, "leave documents without a workbook unchanged instead of failing them")
	return cmd
}
