package logger

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/datalogger/internal/service/engine"
	"github.com/oshokin/datalogger/internal/service/session"
)

// EncodeStatus converts an engine status into the GetStatus reply.
func EncodeStatus(st *engine.Status) (*structpb.Struct, error) {
	if st == nil {
		return &structpb.Struct{}, nil
	}

	sessions := make([]any, 0, len(st.Sessions))
	for _, s := range st.Sessions {
		sessions = append(sessions, encodeSession(s))
	}

	snap := st.Snapshot

	return structpb.NewStruct(map[string]any{
		"time":  st.Time.UTC().Format(time.RFC3339Nano),
		"ticks": st.Ticks,
		"snapshot": map[string]any{
			"clock":           snap.ClockString(),
			"din_level":       snap.DinLevel,
			"din_count":       snap.DinCount,
			"ain_voltage":     snap.AinVoltage,
			"current_ma":      snap.CurrentMA,
			"load_voltage":    snap.LoadVoltage,
			"power_mw":        snap.PowerMW,
			"probe_temp":      snap.ProbeTemp,
			"module_temp":     snap.ModuleTemp,
			"module_humidity": snap.ModuleHumidity,
		},
		"alarms": map[string]any{
			"ad":    st.Signals.AD,
			"iv":    st.Signals.IV,
			"temp":  st.Signals.Temp,
			"clock": st.Signals.Clock,
		},
		"outputs": map[string]any{
			"relay":                st.Decision.Relay,
			"relay_source":         string(st.Decision.RelaySource),
			"digital_mode":         st.Decision.DigitalOut.Mode.String(),
			"digital_frequency_hz": st.Decision.DigitalOut.FrequencyHz,
			"digital_duty":         st.Decision.DigitalOut.Duty,
			"digital_source":       string(st.Decision.DigitalSource),
		},
		"sessions": sessions,
		"errors": map[string]any{
			"controls": st.ControlsError,
			"source":   st.SourceError,
			"actuator": st.ActuatorError,
		},
	})
}

// encodeSession converts one session status into a Struct-compatible map.
func encodeSession(s session.Status) map[string]any {
	files := make([]any, 0, len(s.Files))
	for _, f := range s.Files {
		files = append(files, f)
	}

	return map[string]any{
		"domain":         s.Domain.String(),
		"state":          s.State.String(),
		"run_id":         s.RunID,
		"elapsed_min":    s.Elapsed.Minutes(),
		"samples":        s.Samples,
		"buffered":       s.Buffered,
		"flushes":        s.Flushes,
		"flush_failures": s.FlushFailures,
		"files":          files,
		"last_error":     s.LastError,
	}
}
