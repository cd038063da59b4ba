// Package common defines sentinel errors shared by the client layers.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Local store errors.
	ErrorNotFound       = errors.New("not found")
	ErrServerIDConflict = errors.New("server id already assigned")

	// Sync outcomes. Both are retryable: the scheduler backs off and tries again.
	ErrOffline     = errors.New("device is offline")
	ErrPartialSync = errors.New("sync pass partially failed")
)

// IsRetryable reports whether err is a sync outcome worth reattempting later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrOffline) || errors.Is(err, ErrPartialSync)
}
