package core

import "time"

// MaxHappiness is the ceiling of the on-chain happiness score.
const MaxHappiness = 100

// DecayPolicy configures how fast happiness drains without interaction.
type DecayPolicy struct {
	Threshold   time.Duration // inactivity tolerated before any decay
	RatePerHour float64       // points lost per hour of inactivity
}

// DefaultDecayPolicy mirrors the economy rules given to every agent.
func DefaultDecayPolicy() DecayPolicy {
	return DecayPolicy{
		Threshold:   time.Hour,
		RatePerHour: 5,
	}
}

// Decay computes the score an agent should have at now, given the unix
// second of its last interaction (0 when it never interacted). The result is
// never above score. The boolean reports whether the score changed.
func Decay(now, lastTS int64, score uint8, policy DecayPolicy) (uint8, bool) {
	elapsed := time.Duration(now-lastTS) * time.Second
	if elapsed <= policy.Threshold || policy.RatePerHour <= 0 {
		return score, false
	}

	decay := int64(policy.RatePerHour * elapsed.Hours())
	if decay <= 0 {
		return score, false
	}
	if decay >= int64(score) {
		return 0, score > 0
	}
	return score - uint8(decay), true
}
