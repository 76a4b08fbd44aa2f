package sensors

import (
	"fmt"

	"github.com/oshokin/datalogger/internal/domain/measurement"
)

// Feed selects the logged quantities of one domain from a snapshot.
type Feed interface {
	// Domain returns the domain the feed belongs to.
	Domain() measurement.Domain
	// Quantities returns the record file prefixes, one per logged quantity.
	Quantities() []string
	// Values returns the live values in the same order as Quantities.
	Values(s measurement.Snapshot) []float64
}

// FeedFor returns the feed of an input domain.
//
//nolint:ireturn // Feed is a closed set of variants selected at session start.
func FeedFor(d measurement.Domain) (Feed, error) {
	switch d {
	case measurement.DomainAD:
		return adFeed{}, nil
	case measurement.DomainIV:
		return ivFeed{}, nil
	case measurement.DomainTemp:
		return tempFeed{}, nil
	default:
		return nil, fmt.Errorf("%w: %s has no sensor feed", measurement.ErrUnknownDomain, d)
	}
}

// adFeed logs the digital input count and the analog input voltage.
type adFeed struct{}

func (adFeed) Domain() measurement.Domain { return measurement.DomainAD }

func (adFeed) Quantities() []string { return []string{"dinCount", "ainVoltage"} }

func (adFeed) Values(s measurement.Snapshot) []float64 {
	return []float64{s.DinCount, s.AinVoltage}
}

// ivFeed logs current, load voltage and power.
type ivFeed struct{}

func (ivFeed) Domain() measurement.Domain { return measurement.DomainIV }

func (ivFeed) Quantities() []string { return []string{"ivCurrent", "ivVoltage", "ivPower"} }

func (ivFeed) Values(s measurement.Snapshot) []float64 {
	return []float64{s.CurrentMA, s.LoadVoltage, s.PowerMW}
}

// tempFeed logs probe temperature, module temperature and humidity.
type tempFeed struct{}

func (tempFeed) Domain() measurement.Domain { return measurement.DomainTemp }

func (tempFeed) Quantities() []string { return []string{"probeTemp", "moduleTemp", "moduleHumidity"} }

func (tempFeed) Values(s measurement.Snapshot) []float64 {
	return []float64{s.ProbeTemp, s.ModuleTemp, s.ModuleHumidity}
}
