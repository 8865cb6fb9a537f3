package model

// AttachmentCandidate is a local file staged for upload. It only lives
// for the duration of one form session.
type AttachmentCandidate struct {
	ID       string `json:"id"` // staging id
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mime_type"`
	Path     string `json:"path,omitempty"`
}
