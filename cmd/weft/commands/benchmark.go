package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agenthands/weft/internal/core/benchmark"
	"github.com/agenthands/weft/internal/core/ledger"
	"github.com/agenthands/weft/internal/llm"
)

func newBenchmarkCmd(a *app) *cobra.Command {
	var embeddings bool
	var out string
	cmd := &cobra.Command{
		Use:   "benchmark <standard-dir> <test-dir>...",
		Short: "Score workbooks against a curated standard",
		Long: `Compare every workbook of the standard directory with the workbook of the
same name in each test directory. Terms are grouped by predicate and element
and each group is scored by best-match similarity and Jaccard overlap.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("embeddings") {
				a.cfg.Benchmark.Embeddings = embeddings
			}
			if err := a.validate(); err != nil {
				return err
			}

			var sim benchmark.Similarity
			if a.cfg.Benchmark.Embeddings {
				gen, embedder, err := llm.NewClient(cmd.Context(), a.cfg.LLM)
				if err != nil {
					return a.printer.Error("Cannot create embedding client", err.Error(), nil, nil)
				}
				if c, ok := gen.(interface{ Close() error }); ok {
					defer c.Close()
				}
				if embedder == nil {
					return a.printer.Error("Cannot score by embeddings",
						fmt.Sprintf("provider %q has no embedding model", a.cfg.LLM.Provider), nil,
						[]string{"Set llm.embedding_model or drop --embeddings."})
				}
				sim = benchmark.NewEmbeddingSimilarity(embedder)
			}
			b := benchmark.NewBenchmark(sim, a.logger)
			b.Vocabularies = a.cfg.Benchmark.Vocabularies

			results, err := b.CompareDirs(cmd.Context(), args[0], args[1:])
			if err != nil {
				return a.printer.Error("Benchmark failed", err.Error(), nil, nil)
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return a.printer.Error("Cannot write report", err.Error(), nil, nil)
				}
				defer f.Close()
				w = f
			}
			if err := benchmark.WriteTSV(w, results); err != nil {
				return a.printer.Error("Cannot write report", err.Error(), nil, nil)
			}
			if out != "" {
				a.printer.Success("scored %d group(s), report written to %s", len(results), out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&embeddings, "embeddings", false, "score terms by label embedding similarity instead of exact identifiers")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the report to this file instead of stdout")
	return cmd
}

func newPruneCmd(a *app) *cobra.Command {
	var where []string
	var out string
	cmd := &cobra.Command{
		Use:   "prune <workbook>",
		Short: "Delete workbook rows matching every --where criterion",
		Long: `Delete the rows of a workbook whose columns contain every given value, e.g.
--where element=attribute --where object_id=ECSO:00001528. The workbook is
rewritten in place unless --out is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := ledger.ParseCriteria(where)
			if err != nil {
				return a.printer.Error("Invalid criteria", err.Error(), nil,
					[]string{"Use --where column=value with a workbook column name."})
			}
			l, err := ledger.LoadFile(args[0])
			if err != nil {
				return a.printer.Error("Cannot load workbook", err.Error(), nil, nil)
			}
			pruned, removed, err := l.Delete(criteria)
			if err != nil {
				return a.printer.Error("Invalid criteria", err.Error(), nil, nil)
			}
			if removed == 0 {
				a.printer.Warning("no rows matched; %s left unchanged", args[0])
				return nil
			}
			if out == "" {
				out = args[0]
			}
			if err := pruned.WriteFile(out); err != nil {
				return a.printer.Error("Cannot write workbook", err.Error(), nil, nil)
			}
			a.printer.Success("deleted %d of %d row(s), wrote %s", removed, l.Len(), out)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "column=value criterion; rows must match all of them")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the pruned workbook here instead of in place")
	return cmd
}
