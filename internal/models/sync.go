package models

// SyncReport summarizes one resource synchronization pass
type SyncReport struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	FilesCopied int    `json:"filesCopied"`
	DirsCreated int    `json:"dirsCreated"`
}
