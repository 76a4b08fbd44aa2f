// Package channel implements the fixed-capacity sample buffer of one logged quantity.
//
// A Ring holds up to N points. When it fills, everything but the newest point
// is spilled to a Sink and the newest point moves to index 0, so the next line
// segment drawn from the buffer connects to the previous one.
package channel
