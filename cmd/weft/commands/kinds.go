package commands

import (
	"github.com/spf13/cobra"

	"github.com/agenthands/weft/internal/core/model"
)

func newKindsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the supported annotation kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled := make(map[string]bool)
			for _, name := range a.cfg.Annotate.Kinds {
				enabled[name] = true
			}
			for _, name := range model.KindNames() {
				k, err := model.LookupKind(name)
				if err != nil {
					return err
				}
				marker := " "
				if enabled[name] {
					marker = "*"
				}
				a.printer.Info("%s %-22s %-10s %-9s %s", marker, k.Name, k.Element, a.cfg.Backend(k), k.Predicate)
			}
			return nil
		},
	}
}
