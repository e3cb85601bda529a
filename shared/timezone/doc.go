// Package timezone keeps every wall-clock conversion in the clinic's configured zone (APP_TIMEZONE).
//
// Instants are stored and compared in UTC. This package is only for presenting them, and for
// parsing day-level inputs such as the availability date.
package timezone
