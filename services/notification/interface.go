// File: services/notification/interface.go
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	orderRepo "cakebox/database/repository/order"
	"cakebox/models"
	"cakebox/utils"

	"go.uber.org/zap"
)

// OutboundMessage is the delivery-agnostic "new order" event: recipient and
// subject derived from the order data, body holding the rendered summary and
// transcript.
type OutboundMessage struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// Mailer delivers an outbound message. The transport is out of scope; the
// default implementation only logs.
type Mailer interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// LogMailer writes the outbound message to the log instead of sending it.
// Replace with a real transport integration when one exists.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg OutboundMessage) error {
	logger := utils.GetLogger()
	logger.Info("Order notification",
		zap.String("recipient", msg.Recipient),
		zap.String("subject", msg.Subject),
		zap.Int("bodyBytes", len(msg.Body)),
	)
	logger.Sugar().Debugf("Order notification body:\n%s", msg.Body)
	return nil
}

// OrderNotifier emits a "new order" event for a finalized order. It does not
// participate in the conversation flow; failures are the caller's to log.
type OrderNotifier interface {
	Notify(ctx context.Context, sessionID string, values map[string]string, log []models.Turn, attachments []models.Attachment) error
}

// DefaultOrderNotifier renders the order into an outbound message, hands it
// to the mailer and archives the order record.
type DefaultOrderNotifier struct {
	Mailer    Mailer
	Archive   orderRepo.OrderRecordRepository
	Recipient string
}

func NewDefaultOrderNotifier(mailer Mailer, archive orderRepo.OrderRecordRepository, recipient string) *DefaultOrderNotifier {
	return &DefaultOrderNotifier{
		Mailer:    mailer,
		Archive:   archive,
		Recipient: recipient,
	}
}

func (n *DefaultOrderNotifier) Notify(ctx context.Context, sessionID string, values map[string]string, log []models.Turn, attachments []models.Attachment) error {
	customer := values["name"]
	if customer == "" {
		customer = "Unknown Customer"
	}
	transcript := renderTranscript(log)

	msg := OutboundMessage{
		Recipient: n.Recipient,
		Subject:   fmt.Sprintf("New Quick Order Request - %s", customer),
		Body:      renderBody(values, transcript, attachments),
	}
	if err := n.Mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("order notification send failed: %w", err)
	}

	if n.Archive != nil {
		record := models.OrderRecord{
			SessionID:   sessionID,
			Values:      values,
			Attachments: attachments,
			Transcript:  transcript,
			CreatedAt:   time.Now(),
		}
		if _, err := n.Archive.Create(ctx, record); err != nil {
			return fmt.Errorf("order archive failed: %w", err)
		}
	}
	return nil
}

// renderBody builds the human-readable summary: one labeled line per schema
// field ("Not provided" when the slot stayed empty), attachment links, then
// the full conversation transcript.
func renderBody(values map[string]string, transcript string, attachments []models.Attachment) string {
	var sb strings.Builder
	sb.WriteString("A new quick order request has been submitted:\n\n")
	for _, slot := range models.OrderSlots {
		value := values[slot.Key]
		if value == "" {
			value = "Not provided"
		}
		fmt.Fprintf(&sb, "%s: %s\n", slot.Label(), value)
	}
	if len(attachments) > 0 {
		sb.WriteString("\nAttached design images:\n")
		for _, a := range attachments {
			fmt.Fprintf(&sb, "- %s (%s)\n", a.URL, a.FileName)
		}
	}
	sb.WriteString("\n---------------------\n")
	sb.WriteString("Full Conversation History (for context):\n")
	sb.WriteString(transcript)
	return sb.String()
}

// renderTranscript renders the log with text parts verbatim and media parts
// as a placeholder marker, never raw bytes.
func renderTranscript(log []models.Turn) string {
	var sb strings.Builder
	for _, turn := range log {
		fmt.Fprintf(&sb, "\n[%s]\n", strings.ToUpper(string(turn.Role)))
		for _, part := range turn.Parts {
			if part.IsMedia() {
				sb.WriteString("(User attached an image)\n")
			} else if part.Text != "" {
				sb.WriteString(part.Text + "\n")
			}
		}
	}
	return sb.String()
}
