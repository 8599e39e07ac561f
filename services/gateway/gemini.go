// File: services/gateway/gemini.go
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cakebox/models"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiGateway talks to the hosted Gemini API and enforces the typed reply
// contract on the way back.
type GeminiGateway struct {
	client         *genai.Client
	modelName      string
	imageModelName string
	timeout        time.Duration
}

// NewGeminiGateway creates a gateway bound to one text model and one
// image-generation model.
func NewGeminiGateway(ctx context.Context, apiKey, modelName, imageModelName string, timeout time.Duration) (*GeminiGateway, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGateway{
		client:         client,
		modelName:      modelName,
		imageModelName: imageModelName,
		timeout:        timeout,
	}, nil
}

// Close releases the underlying API client.
func (g *GeminiGateway) Close() error {
	return g.client.Close()
}

// Converse sends the conversation log to the model in the given mode. The log
// must end with the newest user turn; everything before it is replayed as
// history.
func (g *GeminiGateway) Converse(ctx context.Context, log []models.Turn, mode Mode, sc *SlotContext) (*Reply, error) {
	if len(log) == 0 || log[len(log)-1].Role != models.RoleUser {
		return nil, &TransportError{Op: "converse", Err: errors.New("conversation log must end with a user turn")}
	}

	model := g.client.GenerativeModel(g.modelName)
	switch mode {
	case ModeSlotFilling:
		if sc == nil {
			return nil, &TransportError{Op: "converse", Err: errors.New("slot-filling mode requires a slot context")}
		}
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(buildSlotFillingInstruction(sc))},
		}
		model.SetTemperature(0.5)
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = slotReplySchema(sc.Schema)
	default:
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(buildFreeFormInstruction())},
		}
		model.SetTemperature(0.7)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cs := model.StartChat()
	cs.History = toContents(log[:len(log)-1])

	resp, err := cs.SendMessage(ctx, toParts(log[len(log)-1])...)
	if err != nil {
		return nil, &TransportError{Op: "generate", Err: err}
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return nil, &MalformedReplyError{Err: errors.New("model returned no text")}
	}

	if mode != ModeSlotFilling {
		return &Reply{Text: text}, nil
	}

	var order models.GatewayReply
	if err := json.Unmarshal([]byte(text), &order); err != nil {
		return nil, &MalformedReplyError{Raw: text, Err: err}
	}
	if order.UpdatedValues == nil {
		return nil, &MalformedReplyError{Raw: text, Err: errors.New("missing updatedOrderData")}
	}
	if order.NextKey == "" {
		return nil, &MalformedReplyError{Raw: text, Err: errors.New("missing nextQuestionKey")}
	}
	if order.ResponseText == "" {
		return nil, &MalformedReplyError{Raw: text, Err: errors.New("missing botResponseText")}
	}
	return &Reply{Text: order.ResponseText, Order: &order}, nil
}

// slotReplySchema constrains the slot-filling response to the GatewayReply
// shape, with one string property per known slot key.
func slotReplySchema(schema models.SlotSchema) *genai.Schema {
	valueProps := make(map[string]*genai.Schema, len(schema))
	for _, d := range schema {
		valueProps[d.Key] = &genai.Schema{Type: genai.TypeString}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"updatedOrderData": {
				Type:        genai.TypeObject,
				Description: "All order details collected so far, merged with the latest message.",
				Properties:  valueProps,
			},
			"nextQuestionKey": {
				Type:        genai.TypeString,
				Description: "The key of the next question to ask, or 'summary'.",
			},
			"botResponseText": {
				Type:        genai.TypeString,
				Description: "The bot's natural language response to the user.",
			},
		},
		Required: []string{"updatedOrderData", "nextQuestionKey", "botResponseText"},
	}
}

func toContents(log []models.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(log))
	for _, t := range log {
		role := "user"
		if t.Role == models.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: toParts(t)})
	}
	return contents
}

func toParts(t models.Turn) []genai.Part {
	parts := make([]genai.Part, 0, len(t.Parts))
	for _, p := range t.Parts {
		if p.IsMedia() {
			parts = append(parts, genai.Blob{MIMEType: p.MIMEType, Data: p.Data})
		} else {
			parts = append(parts, genai.Text(p.Text))
		}
	}
	return parts
}

func responseText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String()
}
