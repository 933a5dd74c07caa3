// Package venue selects the risk model for a tagged venue snapshot. It is the
// only place in the engine that branches on venue identity.
package venue

import (
	"fmt"
	"strings"

	"frizo/collateral_engine/internal/fixed"
	"frizo/collateral_engine/internal/health"
	"frizo/collateral_engine/internal/venue/healthcache"
	"frizo/collateral_engine/internal/venue/perpbook"
)

// MaxVenues is the number of venue slots an account can hold.
const MaxVenues = 32

// Kind tags which formula values a snapshot.
type Kind int

const (
	KindPerpBook Kind = iota + 1
	KindHealthCache
)

func (k Kind) String() string {
	switch k {
	case KindPerpBook:
		return "perpbook"
	case KindHealthCache:
		return "healthcache"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindPerpBook, KindHealthCache:
		return []byte(k.String()), nil
	default:
		return nil, health.ErrUnknownVenueKind
	}
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "perpbook":
		*k = KindPerpBook
	case "healthcache":
		*k = KindHealthCache
	default:
		return fmt.Errorf("%w: %q", health.ErrUnknownVenueKind, text)
	}
	return nil
}

// Snapshot is one venue slot of an account. Exactly the payload matching
// Kind must be set.
type Snapshot struct {
	Index       int                   `yaml:"index"`
	Kind        Kind                  `yaml:"kind"`
	PerpBook    *perpbook.Snapshot    `yaml:"perpbook,omitempty"`
	HealthCache *healthcache.Snapshot `yaml:"healthcache,omitempty"`
}

// Params are the tunables shared by every venue observer.
type Params struct {
	PerpBook      perpbook.RiskParams `yaml:"perpbook"`
	DustThreshold fixed.I80F48        `yaml:"dust_threshold"`
}

func DefaultParams() Params {
	return Params{
		PerpBook:      perpbook.DefaultRiskParams(),
		DustThreshold: health.DefaultDustThreshold,
	}
}

// NewObservable builds the observer for s.
func NewObservable(s Snapshot, p Params) (health.Observable, error) {
	switch s.Kind {
	case KindPerpBook:
		if s.PerpBook == nil {
			return nil, health.Inconsistent("venue %d is %s without a payload", s.Index, s.Kind)
		}
		if s.HealthCache != nil {
			return nil, health.Inconsistent("venue %d is %s but carries a %s payload", s.Index, s.Kind, KindHealthCache)
		}
		return perpbook.NewObserver(s.PerpBook, p.PerpBook, p.DustThreshold), nil
	case KindHealthCache:
		if s.HealthCache == nil {
			return nil, health.Inconsistent("venue %d is %s without a payload", s.Index, s.Kind)
		}
		if s.PerpBook != nil {
			return nil, health.Inconsistent("venue %d is %s but carries a %s payload", s.Index, s.Kind, KindPerpBook)
		}
		return healthcache.NewObserver(s.HealthCache, p.DustThreshold), nil
	default:
		return nil, fmt.Errorf("venue %d: %w: %s", s.Index, health.ErrUnknownVenueKind, s.Kind)
	}
}

// Observe builds the observer for s and evaluates every quantity.
func Observe(s Snapshot, p Params) (health.Observation, error) {
	o, err := NewObservable(s, p)
	if err != nil {
		return health.Observation{}, err
	}
	return health.Observe(o)
}
