package healthcache

import (
	"frizo/collateral_engine/internal/fixed"
	"frizo/collateral_engine/internal/health"
)

// TokenInfo holds the lending weights of one token slot.
type TokenInfo struct {
	Symbol           string       `yaml:"symbol"`
	MaintAssetWeight fixed.I80F48 `yaml:"maint_asset_weight"`
	InitAssetWeight  fixed.I80F48 `yaml:"init_asset_weight"`
	MaintLiabWeight  fixed.I80F48 `yaml:"maint_liab_weight"`
	InitLiabWeight   fixed.I80F48 `yaml:"init_liab_weight"`
}

// TokenPosition is the account's balance in one token, both sides in index
// units. Native amounts are Deposits × DepositIndex and Borrows × BorrowIndex.
type TokenPosition struct {
	Deposits fixed.I80F48 `yaml:"deposits"`
	Borrows  fixed.I80F48 `yaml:"borrows"`
}

func (t TokenPosition) idle() bool {
	return t.Deposits.IsZero() && t.Borrows.IsZero()
}

// PerpInfo holds the weights and lot size of one perp market slot.
type PerpInfo struct {
	Symbol           string       `yaml:"symbol"`
	BaseLotSize      int64        `yaml:"base_lot_size"`
	MaintAssetWeight fixed.I80F48 `yaml:"maint_asset_weight"`
	InitAssetWeight  fixed.I80F48 `yaml:"init_asset_weight"`
	MaintLiabWeight  fixed.I80F48 `yaml:"maint_liab_weight"`
	InitLiabWeight   fixed.I80F48 `yaml:"init_liab_weight"`
}

// PerpPosition is the account's state in one perp market. Base and resting
// order quantities are in base lots; QuotePosition is native quote.
type PerpPosition struct {
	BasePosition        int64        `yaml:"base_position"`
	QuotePosition       fixed.I80F48 `yaml:"quote_position"`
	LongSettledFunding  fixed.I80F48 `yaml:"long_settled_funding"`
	ShortSettledFunding fixed.I80F48 `yaml:"short_settled_funding"`
	BidsQuantity        int64        `yaml:"bids_quantity"`
	AsksQuantity        int64        `yaml:"asks_quantity"`
}

func (p PerpPosition) idle() bool {
	return p.BasePosition == 0 && p.QuotePosition.IsZero() && p.BidsQuantity == 0 && p.AsksQuantity == 0
}

// Cache is the venue's price and index cache, one entry per slot.
type Cache struct {
	TokenPrices      []fixed.I80F48 `yaml:"token_prices"`
	DepositIndex     []fixed.I80F48 `yaml:"deposit_index"`
	BorrowIndex      []fixed.I80F48 `yaml:"borrow_index"`
	PerpPrices       []fixed.I80F48 `yaml:"perp_prices"`
	PerpLongFunding  []fixed.I80F48 `yaml:"perp_long_funding"`
	PerpShortFunding []fixed.I80F48 `yaml:"perp_short_funding"`
}

// Snapshot is one frozen copy of an account on the venue together with the
// group parameters and cache needed to value it.
type Snapshot struct {
	Tokens     []TokenPosition `yaml:"tokens"`
	TokenInfos []TokenInfo     `yaml:"token_infos"`
	Perps      []PerpPosition  `yaml:"perps"`
	PerpInfos  []PerpInfo      `yaml:"perp_infos"`
	Cache      Cache           `yaml:"cache"`
}

// Validate checks slot counts across tables.
func (s *Snapshot) Validate() error {
	if s == nil {
		return health.Inconsistent("nil healthcache snapshot")
	}
	tables := []struct {
		name      string
		got, want int
	}{
		{"token infos", len(s.TokenInfos), len(s.Tokens)},
		{"token prices", len(s.Cache.TokenPrices), len(s.Tokens)},
		{"deposit index", len(s.Cache.DepositIndex), len(s.Tokens)},
		{"borrow index", len(s.Cache.BorrowIndex), len(s.Tokens)},
		{"perp infos", len(s.PerpInfos), len(s.Perps)},
		{"perp prices", len(s.Cache.PerpPrices), len(s.Perps)},
		{"perp long funding", len(s.Cache.PerpLongFunding), len(s.Perps)},
		{"perp short funding", len(s.Cache.PerpShortFunding), len(s.Perps)},
	}
	for _, tb := range tables {
		if tb.got != tb.want {
			return health.Inconsistent("%s has %d slots, want %d", tb.name, tb.got, tb.want)
		}
	}
	return nil
}
