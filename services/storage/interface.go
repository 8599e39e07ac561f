// File: services/storage/interface.go
package storage

import "context"

// AttachmentStore hosts design images uploaded during a conversation and
// returns a URL the bakery team can open from the order notification.
type AttachmentStore interface {
	Upload(ctx context.Context, data []byte, fileName, mimeType string) (string, error)
}
