// Package alarm evaluates the input alarms of the AD, IV and TEMP domains and
// the time-of-day clock alarm.
//
// Input alarms are recomputed from live values every tick and never latch.
// The clock alarm latches on the tick the live clock equals the configured
// time and stays tripped until it is disarmed.
package alarm
