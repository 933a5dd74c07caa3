package health

// MarginFractionKind selects which weighting rule is applied to a balance or position.
type MarginFractionKind int

const (
	Equity        MarginFractionKind = iota // full equity, unrealized P&L included
	InitReq                                 // initial margin requirement
	MaintReq                                // maintenance margin requirement
	OpenEquity                              // equity counting only unrealized losses
	ContinuousReq                           // requirement applied while orders rest
)

func (k MarginFractionKind) String() string {
	switch k {
	case Equity:
		return "equity"
	case InitReq:
		return "init"
	case MaintReq:
		return "maint"
	case OpenEquity:
		return "open_equity"
	case ContinuousReq:
		return "continuous"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the declared kinds.
func (k MarginFractionKind) Valid() bool {
	return k >= Equity && k <= ContinuousReq
}

// IsRequirement is true for the kinds that never credit a positive balance.
func (k MarginFractionKind) IsRequirement() bool {
	return k == InitReq || k == MaintReq || k == ContinuousReq
}
