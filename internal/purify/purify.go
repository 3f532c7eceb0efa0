// Package purify holds the policy that decides when community downvotes
// destroy a post. It is pure math: no storage, no clock, no side effects.
package purify

// Thresholds are the externally supplied policy knobs. MinVotes gates both
// decisions; MeterRatio is expected to sit at or below PurifyRatio by
// configuration convention, but that is not enforced here.
type Thresholds struct {
	MinVotes    int
	PurifyRatio float64
	MeterRatio  float64
}

// DefaultThresholds matches the shipped configuration defaults.
var DefaultThresholds = Thresholds{
	MinVotes:    10,
	PurifyRatio: 0.6,
	MeterRatio:  0.4,
}

// Decision is the policy output for one tally snapshot.
type Decision struct {
	ShouldPurify     bool    `json:"shouldPurify"`
	ShowMeter        bool    `json:"showMeter"`
	MeterFillPercent float64 `json:"meterFillPercent"`
}

// Evaluate maps a vote tally onto a lifecycle decision. Both threshold
// comparisons are inclusive. The meter fill interpolates the downvote ratio
// linearly between MeterRatio (0%) and PurifyRatio (100%), clamped; when the
// two ratios coincide or invert, the meter snaps to 0 or 100 instead of
// dividing by zero.
func Evaluate(upvotes, downvotes int, t Thresholds) Decision {
	total := upvotes + downvotes

	var ratio float64
	if total > 0 {
		ratio = float64(downvotes) / float64(total)
	}

	var d Decision
	if total < t.MinVotes {
		return d
	}

	d.ShouldPurify = ratio >= t.PurifyRatio
	d.ShowMeter = ratio >= t.MeterRatio

	span := t.PurifyRatio - t.MeterRatio
	switch {
	case span <= 0:
		if ratio >= t.PurifyRatio {
			d.MeterFillPercent = 100
		}
	default:
		fill := (ratio - t.MeterRatio) / span * 100
		if fill < 0 {
			fill = 0
		} else if fill > 100 {
			fill = 100
		}
		d.MeterFillPercent = fill
	}

	return d
}
