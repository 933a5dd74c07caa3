package perpbook

import (
	"testing"

	"frizo/collateral_engine/internal/health"
)

func BenchmarkMarginFraction(b *testing.B) {
	s := fuzzSnapshot(5_000, -20, 12, 3, 9, -1_500, 7, 800, 120, 130)
	p := DefaultRiskParams()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MarginFraction(s, health.InitReq, p)
	}
}

func BenchmarkObserve(b *testing.B) {
	o := NewObserver(fuzzSnapshot(5_000, -20, 12, 3, 9, -1_500, 7, 800, 120, 130), DefaultRiskParams(), health.DefaultDustThreshold)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		health.Observe(o)
	}
}
