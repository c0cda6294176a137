package model

import "time"

// Message represents a chat message in the conversation
type Message struct {
	Role        string
	Content     string // Raw content from the backend
	Rendered    string // Cached rendered markdown (optimize if storage becomes a concern)
	Timestamp   time.Time
	Attachments []ImageAttachment
}

// ImageAttachment is an image staged for the next send. Created at
// file-pick or paste time, discarded after a successful send or on
// explicit removal.
type ImageAttachment struct {
	ID   string
	URL  string
	Name string
	Size int64
}
