// Package results persists logged points as append-only text record files.
//
// Each file holds one quantity of one session. Every line is "<x>,<y>\n" with
// decimal floats; there is no header. Files are opened for each append and
// closed straight after, and readers stop at the first line that is not a
// complete record so a write interrupted by power loss only costs that line.
package results
