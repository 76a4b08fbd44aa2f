// Package sensors provides the live measurement sources read by the poll loop
// and the per-domain feeds that select which quantities a session logs.
//
// A Source returns the latest converted value of every quantity. Mock
// synthesises values for bench runs, Serial reads them from a microcontroller
// bridge over a serial port, and Throttle enforces a minimum conversion delay.
package sensors
