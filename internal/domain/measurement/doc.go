// Package measurement contains the plain data types shared by the logger core:
// monitored domains, logged points, live sensor snapshots and the typed
// operator controls that drive alarms, sessions and actuation.
//
// Display labels are parsed into these types only at the display boundary;
// everything below it works with numbers and enums.
package measurement
