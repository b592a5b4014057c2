package models

// FlashLevel selects how a one-shot message is styled.
type FlashLevel string

const (
	FlashSuccess FlashLevel = "success"
	FlashInfo    FlashLevel = "info"
	FlashWarning FlashLevel = "warning"
	FlashError   FlashLevel = "error"
)

// Flash is a message queued by a mutation and shown on the next page render.
type Flash struct {
	Level   FlashLevel
	Message string
}
