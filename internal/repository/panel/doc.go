// Package panel persists operator field values between restarts.
//
// Values are stored as a flat "screen/field" to label map encoded with
// protojson as a google.protobuf.Struct, the same representation the status
// API uses for field updates.
package panel
