package model

// Status is the competitive classification of a mall, expressed from the
// focal brand's perspective.
type Status string

const (
	StatusBlocked     Status = "blocked"     // rival holds an exclusivity agreement for the venue
	StatusCaptured    Status = "captured"    // rival opened where the focal brand had interest or presence
	StatusBlueOcean   Status = "blue_ocean"  // rival-only presence, zero focal interest
	StatusOpportunity Status = "opportunity" // named target, neither side has opened
	StatusGap         Status = "gap"         // focal interest or presence, rival absent
	StatusNeutral     Status = "neutral"
)

// Signals are the per-venue presence facts the classifier consumes,
// relative to the focal brand.
type Signals struct {
	FocalOpened bool `json:"focal_opened"` // focal brand operates an opened store in the venue
	RivalOpened bool `json:"rival_opened"` // rival brand operates an opened store in the venue
	Reported    bool `json:"reported"`     // rival presence reported or observed, not confirmed opened
	Exclusive   bool `json:"exclusive"`    // venue holds an exclusivity agreement with the rival
	Target      bool `json:"target"`       // venue is on the focal brand's expansion target list
}

// Classify maps presence signals to exactly one status. Evaluation order is
// fixed and the first matching rule wins:
//  1. exclusive: blocked, overriding every other signal
//  2. rival opened where the focal brand targeted, observed, or opened: captured
//  3. rival opened with zero focal interest: blue_ocean
//  4. named target, neither side opened: opportunity
//  5. focal interest or presence with the rival absent: gap
//  6. otherwise: neutral
//
// The function is total and deterministic, so callers may memoize the result
// per record.
func Classify(s Signals) Status {
	switch {
	case s.Exclusive:
		return StatusBlocked
	case s.RivalOpened && (s.Target || s.Reported || s.FocalOpened):
		return StatusCaptured
	case s.RivalOpened:
		return StatusBlueOcean
	case s.Target && !s.FocalOpened:
		return StatusOpportunity
	case s.Target || s.Reported || s.FocalOpened:
		return StatusGap
	default:
		return StatusNeutral
	}
}

// AllStatuses lists every status the classifier can produce, in rule order.
func AllStatuses() []Status {
	return []Status{
		StatusBlocked,
		StatusCaptured,
		StatusBlueOcean,
		StatusOpportunity,
		StatusGap,
		StatusNeutral,
	}
}
