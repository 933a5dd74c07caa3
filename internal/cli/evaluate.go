package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"frizo/collateral_engine/internal/rebalance"
	"frizo/collateral_engine/internal/snapshot"
)

type accountDecision struct {
	ID       string              `json:"id" yaml:"id"`
	Decision *rebalance.Decision `json:"decision,omitempty" yaml:"decision,omitempty"`
	Error    string              `json:"error,omitempty" yaml:"error,omitempty"`
}

func newEvaluateCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate <snapshot.yaml>",
		Short: "Decide rebalancing transfers for every account in a snapshot file",
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

			results := make([]accountDecision, 0, len(accounts))
			for i := range accounts {
				a := &accounts[i]
				res := accountDecision{ID: a.ID}
				_, d, err := rebalance.EvaluateAccount(a.Bank, &a.Account, cfg.VenueParams(), cfg.Policy())
				if err != nil {
					log.WithAccount(a.ID).Warn("unknown health, no action", "error", err)
					res.Error = err.Error()
				} else {
					res.Decision = &d
				}
				results = append(results, res)
			}

			return render(cmd.OutOrStdout(), rc.Output, results, func(w io.Writer) error {
				return writeDecisionTable(w, results)
			})
		},
	}
}

func writeDecisionTable(w io.Writer, results []accountDecision) error {
	for _, res := range results {
		switch {
		case res.Decision == nil:
			fmt.Fprintf(w, "%s\tunknown health\t%s\n", res.ID, res.Error)
		case res.Decision.IsNoAction():
			fmt.Fprintf(w, "%s\tno action\n", res.ID)
		default:
			for _, d := range res.Decision.Deposits {
				fmt.Fprintf(w, "%s\tdeposit\tvenue %d\t%s\t%s\n", res.ID, d.VenueIndex, d.Kind, amount(d.Amount))
			}
			if wd := res.Decision.Withdraw; wd != nil {
				fmt.Fprintf(w, "%s\twithdraw\tvenue %d\t%s\t%s\n", res.ID, wd.SourceIndex, wd.Kind, amount(wd.Amount))
			}
		}
	}
	return nil
}
