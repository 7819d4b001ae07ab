package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agenthands/weft/internal/soso"
	"github.com/agenthands/weft/internal/sssom"
)

func (a *app) sosoConverter() *soso.Converter {
	c := soso.NewConverter(a.logger)
	c.PastaURL = a.cfg.SOSO.PastaURL
	c.PortalURL = a.cfg.SOSO.PortalURL
	c.DOIURL = a.cfg.SOSO.DOIURL
	c.Provider = a.cfg.SOSO.Provider
	c.Publisher = a.cfg.SOSO.Publisher
	c.LookupDOI = a.cfg.SOSO.LookupDOI
	return c
}

func newSOSOCmd(a *app) *cobra.Command {
	var lookupDOI bool
	var combine string
	cmd := &cobra.Command{
		Use:   "soso <eml-dir> <out-dir>",
		Short: "Write schema.org Dataset JSON-LD for every document",
		Long: `Write one <packageId>.json file per document following the Science On
Schema.Org guidelines. Existing files are left alone. With --combine the
JSON-LD files in the output directory are merged into a single graph.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("lookup-doi") {
				a.cfg.SOSO.LookupDOI = lookupDOI
			}
			if err := a.validate(); err != nil {
				return err
			}
			written, failed, err := a.sosoConverter().ConvertDir(cmd.Context(), args[0], args[1])
			if err != nil {
				return a.printer.Error("Cannot convert documents", err.Error(), nil, nil)
			}
			a.printer.Success("wrote %d dataset(s) to %s", len(written), args[1])

			if combine != "" {
				if err := combineDir(args[1], combine); err != nil {
					return a.printer.Error("Cannot combine datasets", err.Error(), nil, nil)
				}
				a.printer.Success("combined graph written to %s", combine)
			}

			if len(failed) > 0 {
				names := make([]string, 0, len(failed))
				for name := range failed {
					names = append(names, name)
				}
				sort.Strings(names)
				details := make(map[string]string, len(failed))
				for _, name := range names {
					details[name] = failed[name].Error()
				}
				return a.printer.Error(fmt.Sprintf("%d document(s) could not be converted", len(failed)),
					"The other documents were written.", details, nil)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&lookupDOI, "lookup-doi", true, "look up the package DOI and citation")
	cmd.Flags().StringVar(&combine, "combine", "", "merge the JSON-LD files of the output directory into this file")
	return cmd
}

func combineDir(dir, out string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read '%s': %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || path == filepath.Clean(out) {
			continue
		}
		paths = append(paths, path)
	}
	data, err := soso.CombineFiles(paths)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write '%s': %w", out, err)
	}
	return nil
}

func newSSSOMCmd(a *app) *cobra.Command {
	var meta sssom.MappingSet
	cmd := &cobra.Command{
		Use:   "sssom <vocabulary.rdf> <out-dir>",
		Short: "Write an SSSOM mapping template for the LTER controlled vocabulary",
		Long: `Read a SKOS vocabulary in RDF/XML and write lter.sssom.tsv, one row per
preferred label, with its lter.sssom.yml metadata. Existing files are never
overwritten so curated mappings are safe.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := sssom.FromLTER(args[0], args[1], meta)
			if err != nil {
				return a.printer.Error("Cannot write mapping template", err.Error(),
					map[string]string{"Vocabulary": args[0]}, nil)
			}
			a.printer.Success("wrote %s and %s", files.Data, files.Metadata)
			return nil
		},
	}
	cmd.Flags().StringVar(&meta.MappingSetID, "mapping-set-id", "", "mapping_set_id of the metadata file")
	cmd.Flags().StringVar(&meta.License, "license", "", "license of the mapping set")
	cmd.Flags().StringVar(&meta.SubjectSource, "subject-source", "", "subject_source of the metadata file")
	return cmd
}
