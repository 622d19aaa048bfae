package engine

import "math"

// Delta returns the change of current relative to prior.
//
// A zero baseline has no relative change, so only the direction is kept:
// 1 for growth, -1 for decline, 0 for no change.
func Delta(current, prior float64) float64 {
	if prior == 0 {
		switch {
		case current > 0:
			return 1
		case current < 0:
			return -1
		default:
			return 0
		}
	}
	return (current - prior) / math.Abs(prior)
}
