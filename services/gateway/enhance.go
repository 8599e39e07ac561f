// File: services/gateway/enhance.go
package gateway

import (
	"context"
	"errors"
	"strings"

	"cakebox/models"

	genai "github.com/google/generative-ai-go/genai"
)

// enhancePromptInstruction asks the text model to describe the uploaded image
// as a generation prompt with the enhancement qualities appended.
const enhancePromptInstruction = `You are an expert image editor. Based on the user's uploaded image, generate a detailed text prompt for an AI image generation model to create an 'enhanced' version. The enhanced version should have improved vibrancy, clarity, sharpness, and overall aesthetic appeal. If it's food, make it look more delicious. If it's a person, enhance their features naturally. If it's a landscape, make the colors rich and details crisp. The generated prompt should describe the image's content and append these enhancement qualities. Output only the generated prompt text, nothing else.`

// EnhancedImage is the result of one enhancement round trip: the generation
// prompt the text model derived from the upload, and the generated image.
type EnhancedImage struct {
	Prompt string
	Image  models.ContentPart
}

// ImageEnhancer produces an enhanced rendition of an uploaded image. It is a
// cosmetic side feature and never participates in the order flow.
type ImageEnhancer interface {
	EnhanceImage(ctx context.Context, image models.ContentPart) (*EnhancedImage, error)
}

// EnhanceImage runs the two-step enhancement: the text model turns the upload
// into a generation prompt, then the image model renders it.
func (g *GeminiGateway) EnhanceImage(ctx context.Context, image models.ContentPart) (*EnhancedImage, error) {
	if !image.IsMedia() {
		return nil, &TransportError{Op: "enhance", Err: errors.New("enhancement requires an image part")}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	blob := genai.Blob{MIMEType: image.MIMEType, Data: image.Data}

	promptModel := g.client.GenerativeModel(g.modelName)
	promptModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(enhancePromptInstruction)},
	}
	promptModel.SetTemperature(0.7)

	resp, err := promptModel.GenerateContent(ctx,
		genai.Text("Generate an enhancement prompt for this image."),
		blob,
	)
	if err != nil {
		return nil, &TransportError{Op: "enhance-prompt", Err: err}
	}
	prompt := strings.TrimSpace(responseText(resp))
	if prompt == "" {
		return nil, &MalformedReplyError{Err: errors.New("model returned no enhancement prompt")}
	}

	imageModel := g.client.GenerativeModel(g.imageModelName)
	genResp, err := imageModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &TransportError{Op: "enhance-generate", Err: err}
	}
	generated, ok := firstImageBlob(genResp)
	if !ok {
		return nil, &MalformedReplyError{Err: errors.New("image model returned no image data")}
	}

	return &EnhancedImage{
		Prompt: prompt,
		Image:  models.ContentPart{MIMEType: generated.MIMEType, Data: generated.Data},
	}, nil
}

func firstImageBlob(resp *genai.GenerateContentResponse) (genai.Blob, bool) {
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if blob, ok := part.(genai.Blob); ok {
				return blob, true
			}
		}
	}
	return genai.Blob{}, false
}
