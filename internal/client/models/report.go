package models

// SyncReport summarises one push of a single entity kind.
type SyncReport struct {
	Kind Kind
	// Pushed counts creates and updates acknowledged by the server.
	Pushed int
	// Deleted counts tombstones resolved (remotely or locally).
	Deleted int
	// Failed counts records left pending for a later pass.
	Failed int
	// Owners lists the distinct owners whose records were touched.
	Owners []string
}

func (r SyncReport) Clean() bool { return r.Failed == 0 }
