// Package clock abstracts time so the poll loop and the sessions can be driven
// deterministically in tests.
package clock
