package actuation

import (
	"errors"
	"fmt"
	"strings"
)

// Policy resolves a conflict between the input alarm action and the clock alarm action.
type Policy int

const (
	// PolicyClockWins applies the clock alarm action last, so it wins.
	PolicyClockWins Policy = iota
	// PolicyAlarmWins lets the input alarm action win.
	PolicyAlarmWins
	// PolicyPreferOff picks whichever action switches the output off.
	PolicyPreferOff
)

// ErrUnknownPolicy is returned for unrecognised policy names.
var ErrUnknownPolicy = errors.New("unknown conflict policy")

// String returns the configuration name of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyClockWins:
		return "clock-wins"
	case PolicyAlarmWins:
		return "alarm-wins"
	case PolicyPreferOff:
		return "prefer-off"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy converts a configuration name into a Policy. Empty means PolicyClockWins.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clock-wins":
		return PolicyClockWins, nil
	case "alarm-wins":
		return PolicyAlarmWins, nil
	case "prefer-off":
		return PolicyPreferOff, nil
	default:
		return PolicyClockWins, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}
