package domain

// SyncState is the save feedback shown by the UI.
type SyncState string

const (
	SyncIdle   SyncState = "idle"
	SyncSaving SyncState = "saving"
	SyncSaved  SyncState = "saved"
	SyncError  SyncState = "error"
)

func (s SyncState) String() string {
	return string(s)
}
