// File: services/speech/interface.go
package speech

import "context"

// Transcriber converts a spoken voice message into chat text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcmWAV []byte, sampleRate int32, language string) (string, error)
}
