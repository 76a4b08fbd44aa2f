package measurement

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Domain identifies one monitored measurement category or the time-of-day alarm.
type Domain int

const (
	// DomainNone means no measurement screen is displayed.
	DomainNone Domain = iota
	// DomainAD is the digital input counter and analog input voltage.
	DomainAD
	// DomainIV is the current, load voltage and power module.
	DomainIV
	// DomainTemp is the temperature probe and the temperature/humidity module.
	DomainTemp
	// DomainClock is the time-of-day alarm.
	DomainClock
)

// ClockLayout is the textual layout of the live clock and of the clock alarm setting.
const ClockLayout = "2006-01-02 15:04:05"

// ErrUnknownDomain is returned when a domain name cannot be parsed.
var ErrUnknownDomain = errors.New("unknown domain")

// InputDomains lists the domains backed by sensors, in evaluation order.
func InputDomains() []Domain {
	return []Domain{DomainAD, DomainIV, DomainTemp}
}

// String returns the short lowercase name of the domain.
func (d Domain) String() string {
	switch d {
	case DomainNone:
		return "none"
	case DomainAD:
		return "ad"
	case DomainIV:
		return "iv"
	case DomainTemp:
		return "temp"
	case DomainClock:
		return "clock"
	default:
		return fmt.Sprintf("domain(%d)", int(d))
	}
}

// IsInput reports whether the domain has sensor-backed quantities.
func (d Domain) IsInput() bool {
	return d == DomainAD || d == DomainIV || d == DomainTemp
}

// ParseDomain converts a case-insensitive name into a Domain.
func ParseDomain(s string) (Domain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return DomainNone, nil
	case "ad":
		return DomainAD, nil
	case "iv":
		return DomainIV, nil
	case "temp":
		return DomainTemp, nil
	case "clock":
		return DomainClock, nil
	default:
		return DomainNone, fmt.Errorf("%w: %q", ErrUnknownDomain, s)
	}
}

// Point is one logged (x, y) pair. X is elapsed session time in minutes.
type Point struct {
	// X is the elapsed time since the session started, in minutes.
	X float64
	// Y is the measured value.
	Y float64
}

// Snapshot holds the latest converted value of every sensor quantity.
type Snapshot struct {
	// Time is the wall-clock time at which the snapshot was taken.
	Time time.Time
	// DinLevel is the current level of the digital input.
	DinLevel bool
	// DinCount is the number of falling edges seen on the digital input.
	DinCount float64
	// AinVoltage is the analog input voltage in volts.
	AinVoltage float64
	// CurrentMA is the load current in milliamperes.
	CurrentMA float64
	// LoadVoltage is the load voltage in volts.
	LoadVoltage float64
	// PowerMW is the load power in milliwatts.
	PowerMW float64
	// ProbeTemp is the probe temperature.
	ProbeTemp float64
	// ModuleTemp is the temperature reported by the humidity module.
	ModuleTemp float64
	// ModuleHumidity is the relative humidity in percent.
	ModuleHumidity float64
}

// ClockString formats the snapshot time the way the clock alarm is configured.
func (s Snapshot) ClockString() string {
	if s.Time.IsZero() {
		return ""
	}

	return s.Time.Format(ClockLayout)
}
