// Package display is the boundary between the logger core and the menu layer.
//
// The menu layer exposes labelled configuration fields addressed by screen
// and field ID, reports which measurement screen is shown and accepts redraw
// requests. ReadControls and WriteControls convert those labels to and from
// the typed measurement.Controls; nothing below this package sees a label.
package display
