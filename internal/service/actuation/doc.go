// Package actuation resolves alarm signals and manual controls into the state
// of the relay and the digital/PWM output once per tick.
//
// Precedence, applied in order every tick:
//  1. A fixed Low/High mode drives that level with PWM detached.
//  2. A PWM mode with no alarm tripped drives PWM with a freshly computed duty.
//  3. A tripped input or clock alarm with an action other than None overrides 1 and 2.
//  4. The relay follows the input alarm action, then the clock alarm action,
//     and the last manual command when neither alarm is tripped.
//
// When the input and clock alarms both request different outputs the
// configured Policy decides. Only changed outputs are written to the actuator.
package actuation
