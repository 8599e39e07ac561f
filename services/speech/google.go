package speech

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

// GoogleTranscriber implements Transcriber using Google Cloud Speech-to-Text.
type GoogleTranscriber struct {
	client *speech.Client
}

// NewGoogleTranscriber creates a transcriber. credentialsFile may be empty to
// use the ambient application default credentials.
func NewGoogleTranscriber(ctx context.Context, credentialsFile string) (*GoogleTranscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleTranscriber{client: client}, nil
}

// Close releases the underlying API client.
func (t *GoogleTranscriber) Close() error {
	return t.client.Close()
}

// Transcribe recognizes 16-bit PCM mono audio and returns the joined
// transcript.
func (t *GoogleTranscriber) Transcribe(ctx context.Context, pcmWAV []byte, sampleRate int32, language string) (string, error) {
	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: sampleRate,
			LanguageCode:    language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcmWAV},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	var sb strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			sb.WriteString(result.Alternatives[0].Transcript)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
