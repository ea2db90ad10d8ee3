// Package timezone keeps every wall clock in the service on the configured APP_TIMEZONE.
//
// Timestamps (created_at, deleted_at, history entries) come from Now. Booking dates are
// calendar days and are handled with ParseDay and FormatDay, which never shift a day
// across zones.
//
//	now := timezone.Now()
//	day, err := timezone.ParseDay("2025-09-01")
//	label := timezone.FormatDay(day) // "2025-09-01"
package timezone
