package perpbook

import (
	"fmt"
	"strings"

	"frizo/collateral_engine/internal/fixed"
	"frizo/collateral_engine/internal/health"
)

// PerpType selects where a market's price comes from.
type PerpType int

const (
	Future PerpType = iota // priced from the market's oracle
	Square                 // priced from the venue's mark cache
)

func (pt PerpType) String() string {
	switch pt {
	case Future:
		return "future"
	case Square:
		return "square"
	default:
		return "unknown"
	}
}

func (pt PerpType) MarshalText() ([]byte, error) {
	return []byte(pt.String()), nil
}

func (pt *PerpType) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "future", "":
		*pt = Future
	case "square":
		*pt = Square
	default:
		return fmt.Errorf("unknown perp type %q", text)
	}
	return nil
}

// ========================================================

// CollateralPosition is a signed balance in smallest units. Slot 0 also
// receives realized P&L from markets.
type CollateralPosition = fixed.I80F48

// MarketPosition is the aggregated open-orders record of one market slot.
type MarketPosition struct {
	PosSize       int64        `yaml:"pos_size"`
	CoinOnBids    uint64       `yaml:"coin_on_bids"`
	CoinOnAsks    uint64       `yaml:"coin_on_asks"`
	RealizedPnL   int64        `yaml:"realized_pnl"`
	FundingIndex  fixed.I80F48 `yaml:"funding_index"`   // index at last settlement; accrual is current minus this
	NativePcTotal int64        `yaml:"native_pc_total"` // quote notional accrued
}

// idle means no position and nothing resting on either side.
func (m MarketPosition) idle() bool {
	return m.PosSize == 0 && m.CoinOnBids == 0 && m.CoinOnAsks == 0
}

// CollateralInfo carries the risk weight of one collateral slot.
type CollateralInfo struct {
	Symbol string `yaml:"symbol"`
	Weight uint16 `yaml:"weight"` // permille
}

// MarketInfo carries the risk parameters of one market slot.
type MarketInfo struct {
	Symbol        string   `yaml:"symbol"`
	PerpType      PerpType `yaml:"perp_type"`
	BaseIMF       uint16   `yaml:"base_imf"` // permille
	AssetDecimals uint8    `yaml:"asset_decimals"`
}

// AssetWeightInfo is the weight table of the venue.
type AssetWeightInfo struct {
	Collaterals []CollateralInfo `yaml:"collaterals"`
	Markets     []MarketInfo     `yaml:"markets"`
}

// PriceCache holds the venue's cached oracle, mark and funding values.
type PriceCache struct {
	CollateralPrice   []fixed.I80F48 `yaml:"collateral_price"`
	CollateralTWAP    []fixed.I80F48 `yaml:"collateral_twap"`
	BorrowMultiplier  []fixed.I80F48 `yaml:"borrow_multiplier"`
	SupplyMultiplier  []fixed.I80F48 `yaml:"supply_multiplier"`
	MarketOraclePrice []fixed.I80F48 `yaml:"market_oracle_price"`
	MarkPrice         []fixed.I80F48 `yaml:"mark_price"`
	MarkTWAP          []fixed.I80F48 `yaml:"mark_twap"`
	FundingIndex      []fixed.I80F48 `yaml:"funding_index"`
}

// Snapshot is one frozen copy of a venue margin account and the venue state
// needed to value it. Nothing in this package mutates a Snapshot.
type Snapshot struct {
	Collateral []CollateralPosition `yaml:"collateral"`
	Markets    []MarketPosition     `yaml:"markets"`
	Weights    AssetWeightInfo      `yaml:"weights"`
	Prices     PriceCache           `yaml:"prices"`
}

// Validate checks that every per-slot table has the slot count of its
// position table. TWAP tables are optional.
func (s *Snapshot) Validate() error {
	if s == nil {
		return health.Inconsistent("nil perpbook snapshot")
	}
	c := len(s.Collateral)
	if err := sameLen("collateral weights", len(s.Weights.Collaterals), c); err != nil {
		return err
	}
	if err := sameLen("collateral prices", len(s.Prices.CollateralPrice), c); err != nil {
		return err
	}
	if err := sameLen("borrow multipliers", len(s.Prices.BorrowMultiplier), c); err != nil {
		return err
	}
	if err := sameLen("supply multipliers", len(s.Prices.SupplyMultiplier), c); err != nil {
		return err
	}
	if err := optionalLen("collateral twap", len(s.Prices.CollateralTWAP), c); err != nil {
		return err
	}

	m := len(s.Markets)
	if err := sameLen("market weights", len(s.Weights.Markets), m); err != nil {
		return err
	}
	if err := sameLen("market oracle prices", len(s.Prices.MarketOraclePrice), m); err != nil {
		return err
	}
	if err := sameLen("mark prices", len(s.Prices.MarkPrice), m); err != nil {
		return err
	}
	if err := sameLen("funding indexes", len(s.Prices.FundingIndex), m); err != nil {
		return err
	}
	return optionalLen("mark twap", len(s.Prices.MarkTWAP), m)
}

func sameLen(table string, got, want int) error {
	if got != want {
		return health.Inconsistent("%s has %d slots, want %d", table, got, want)
	}
	return nil
}

func optionalLen(table string, got, want int) error {
	if got == 0 {
		return nil
	}
	return sameLen(table, got, want)
}
