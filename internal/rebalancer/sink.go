package rebalancer

import (
	"context"

	"frizo/collateral_engine/internal/logger"
)

// LogSink records decisions in the log without moving funds.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	if log == nil {
		log = logger.Default()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Submit(_ context.Context, t Transfer) error {
	log := s.log.WithCycle(t.CycleID).WithAccount(t.AccountID)
	for _, d := range t.Decision.Deposits {
		log.Info("deposit to venue",
			"decision", t.ID,
			"venue", d.VenueIndex,
			"kind", d.Kind.String(),
			"amount", d.Amount.StringFixed(6),
		)
	}
	if w := t.Decision.Withdraw; w != nil {
		log.Info("withdraw to ledger",
			"decision", t.ID,
			"venue", w.SourceIndex,
			"kind", w.Kind.String(),
			"amount", w.Amount.StringFixed(6),
		)
	}
	return nil
}
