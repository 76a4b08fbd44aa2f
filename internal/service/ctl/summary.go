package ctl

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"
)

// Summary renders a GetStatus reply as one line, e.g.
//
//	08:00:01 ad=running(12) iv=idle temp=idle alarms=ad relay=on(alarm) dout=PWM 50.0%
func Summary(st *structpb.Struct) string {
	fields := st.GetFields()

	var b strings.Builder

	clock := fields["snapshot"].GetStructValue().GetFields()["clock"].GetStringValue()
	if len(clock) >= len("hh:mm:ss") {
		clock = clock[len(clock)-len("hh:mm:ss"):]
	}

	b.WriteString(clock)

	for _, v := range fields["sessions"].GetListValue().GetValues() {
		s := v.GetStructValue().GetFields()
		state := s["state"].GetStringValue()

		fmt.Fprintf(&b, " %s=%s", s["domain"].GetStringValue(), state)

		if state == "running" {
			fmt.Fprintf(&b, "(%d)", int(s["samples"].GetNumberValue()))
		}
	}

	var tripped []string

	alarms := fields["alarms"].GetStructValue().GetFields()
	for _, name := range []string{"ad", "iv", "temp", "clock"} {
		if alarms[name].GetBoolValue() {
			tripped = append(tripped, name)
		}
	}

	if len(tripped) == 0 {
		tripped = append(tripped, "none")
	}

	fmt.Fprintf(&b, " alarms=%s", strings.Join(tripped, ","))

	outputs := fields["outputs"].GetStructValue().GetFields()

	relay := "off"
	if outputs["relay"].GetBoolValue() {
		relay = "on"
	}

	fmt.Fprintf(&b, " relay=%s(%s)", relay, outputs["relay_source"].GetStringValue())

	mode := outputs["digital_mode"].GetStringValue()
	fmt.Fprintf(&b, " dout=%s", mode)

	if strings.HasPrefix(mode, "PWM") {
		fmt.Fprintf(&b, " %.1f%%", outputs["digital_duty"].GetNumberValue())
	}

	return b.String()
}
