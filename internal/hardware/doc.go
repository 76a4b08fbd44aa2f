// Package hardware defines the output side of the logger: the relay and the
// digital/PWM output. Implementations live next to the transport that reaches
// the pins; this package holds the interface plus a logging decorator and an
// in-memory recorder used for dry runs.
package hardware
