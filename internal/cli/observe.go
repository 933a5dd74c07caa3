package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"frizo/collateral_engine/internal/margin"
	"frizo/collateral_engine/internal/snapshot"
)

type accountHealth struct {
	ID     string         `json:"id" yaml:"id"`
	Health *margin.Health `json:"health,omitempty" yaml:"health,omitempty"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`
}

func newObserveCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "observe <snapshot.yaml>",
		Short: "Print the health summary of every account in a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := rc.load(cmd)
			if err != nil {
				return err
			}

			accounts, err := snapshot.LoadFile(args[0])
			if err != nil {
				return err
			}

			results := make([]accountHealth, 0, len(accounts))
			for i := range accounts {
				a := &accounts[i]
				res := accountHealth{ID: a.ID}
				h, err := margin.Aggregate(a.Bank, &a.Account, cfg.VenueParams())
				if err != nil {
					log.WithAccount(a.ID).Warn("unknown health", "error", err)
					res.Error = err.Error()
				} else {
					res.Health = &h
				}
				results = append(results, res)
			}

			return render(cmd.OutOrStdout(), rc.Output, results, func(w io.Writer) error {
				return writeHealthTable(w, results)
			})
		},
	}
}

func writeHealthTable(w io.Writer, results []accountHealth) error {
	for _, res := range results {
		if res.Health == nil {
			fmt.Fprintf(w, "%s\tunknown health\t%s\n", res.ID, res.Error)
			continue
		}
		h := res.Health
		fmt.Fprintf(w, "%s\tequity %s\tinit adjusted %s\tinit req %s\tmaint req %s\tratio %s\n",
			res.ID, amount(h.Equity), amount(h.InitAdjustedEquity),
			amount(h.InitRequirement), amount(h.MaintRequirement), amount(h.MarginRatio))
		for _, v := range h.Venues {
			o := v.Observation
			fmt.Fprintf(w, "  venue %d\t%s\tequity %s\tnet free %s\tinit req %s\tempty %t\tdeposit valid %t\tmax deposit %s\n",
				v.Index, v.Kind, amount(o.Equity), amount(o.NetFreeCollateral),
				amount(o.InitMarginRequirement), o.IsEmpty, o.IsRebalanceDepositValid,
				amount(o.MaxRebalanceDepositAmount))
		}
	}
	return nil
}
