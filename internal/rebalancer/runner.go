// Package rebalancer drives the decision engine on a schedule: it pulls
// account snapshots, evaluates them and hands non-empty decisions to a sink.
package rebalancer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"frizo/collateral_engine/internal/common"
	"frizo/collateral_engine/internal/health"
	"frizo/collateral_engine/internal/logger"
	"frizo/collateral_engine/internal/margin"
	"frizo/collateral_engine/internal/rebalance"
	"frizo/collateral_engine/internal/venue"
)

// AccountSnapshot is one ledger account with all of its venue snapshots,
// captured at the same moment.
type AccountSnapshot struct {
	ID      string
	Bank    margin.Bank
	Account margin.LedgerAccount
}

// SnapshotSource supplies fresh snapshots for every monitored account.
type SnapshotSource interface {
	Accounts(ctx context.Context) ([]AccountSnapshot, error)
}

// TransferSink receives decisions that move collateral.
type TransferSink interface {
	Submit(ctx context.Context, t Transfer) error
}

// Transfer is a decision addressed to one account.
type Transfer struct {
	ID        string
	CycleID   string
	AccountID string
	Decision  rebalance.Decision
}

// AccountResult is the outcome for one account in a cycle.
type AccountResult struct {
	AccountID string
	Outcome   string
	Health    margin.Health
	Decision  rebalance.Decision
	Err       error
}

// CycleReport summarizes one cycle.
type CycleReport struct {
	CycleID  string
	Results  []AccountResult
	Duration time.Duration
}

// Count returns how many accounts ended with outcome.
func (r CycleReport) Count(outcome string) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Runner evaluates every account once per cycle.
type Runner struct {
	source  SnapshotSource
	sink    TransferSink
	params  venue.Params
	policy  rebalance.Policy
	log     *logger.Logger
	metrics *Metrics
}

func NewRunner(source SnapshotSource, sink TransferSink, params venue.Params, policy rebalance.Policy, log *logger.Logger, metrics *Metrics) *Runner {
	if log == nil {
		log = logger.Default()
	}
	return &Runner{
		source:  source,
		sink:    sink,
		params:  params,
		policy:  policy,
		log:     log,
		metrics: metrics,
	}
}

// Run executes a cycle immediately and then once per interval until ctx is
// done. A failed cycle is logged and the loop continues.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.log.Error("rebalance cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			r.log.Info("rebalancer stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunCycle loads snapshots once and evaluates each account. An engine
// failure on one account skips only that account.
func (r *Runner) RunCycle(ctx context.Context) (report CycleReport, err error) {
	start := time.Now()
	report = CycleReport{CycleID: common.GenerateCycleID()}
	log := r.log.WithCycle(report.CycleID)
	defer func() {
		report.Duration = time.Since(start)
		if r.metrics != nil {
			r.metrics.CycleDuration.Observe(report.Duration.Seconds())
		}
	}()

	accounts, err := r.source.Accounts(ctx)
	if err != nil {
		if r.metrics != nil {
			r.metrics.CycleFailures.Inc()
		}
		return report, fmt.Errorf("load snapshots: %w", err)
	}
	log.Debug("cycle started", "accounts", len(accounts))

	for i := range accounts {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := r.evaluate(ctx, log, report.CycleID, &accounts[i])
		report.Results = append(report.Results, res)
		if r.metrics != nil {
			r.metrics.Decisions.WithLabelValues(res.Outcome).Inc()
		}
	}

	log.Info("cycle finished",
		"accounts", len(report.Results),
		"actions", report.Count(OutcomeAction),
		"unknown_health", report.Count(OutcomeUnknownHealth),
	)
	return report, nil
}

func (r *Runner) evaluate(ctx context.Context, log *logger.Logger, cycleID string, a *AccountSnapshot) AccountResult {
	log = log.WithAccount(a.ID)
	res := AccountResult{AccountID: a.ID}

	h, d, err := rebalance.EvaluateAccount(a.Bank, &a.Account, r.params, r.policy)
	if err != nil {
		// unknown health: take no action this cycle
		res.Outcome = OutcomeUnknownHealth
		res.Err = err
		log.Warn("unknown health, skipping account",
			"error", err,
			"computation_failure", health.IsComputationFailure(err),
		)
		return res
	}
	res.Health = h
	res.Decision = d

	if d.IsNoAction() {
		res.Outcome = OutcomeNoAction
		log.Debug("no action", "init_health", h.InitHealth.StringFixed(4))
		return res
	}

	t := Transfer{
		ID:        common.GenerateDecisionID(),
		CycleID:   cycleID,
		AccountID: a.ID,
		Decision:  d,
	}
	if err := r.sink.Submit(ctx, t); err != nil {
		res.Outcome = OutcomeSinkError
		res.Err = err
		log.Error("submit decision failed", "decision", t.ID, "error", err)
		return res
	}

	res.Outcome = OutcomeAction
	r.countTransfers(d)
	log.Info("decision submitted",
		"decision", t.ID,
		"deposits", len(d.Deposits),
		"withdraw", d.Withdraw != nil,
	)
	return res
}

func (r *Runner) countTransfers(d rebalance.Decision) {
	if r.metrics == nil {
		return
	}
	for _, dep := range d.Deposits {
		r.metrics.Transfers.WithLabelValues("deposit", dep.Kind.String()).Inc()
	}
	if d.Withdraw != nil {
		r.metrics.Transfers.WithLabelValues("withdraw", d.Withdraw.Kind.String()).Inc()
	}
}
