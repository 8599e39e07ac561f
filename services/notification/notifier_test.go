package notification

import (
	"context"
	"testing"

	"cakebox/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	sent []OutboundMessage
}

func (m *captureMailer) Send(ctx context.Context, msg OutboundMessage) error {
	m.sent = append(m.sent, msg)
	return nil
}

type fakeArchive struct {
	records []models.OrderRecord
}

func (a *fakeArchive) Create(ctx context.Context, record models.OrderRecord) (string, error) {
	a.records = append(a.records, record)
	return "rec-1", nil
}

func TestNotifyRendersOrderSummary(t *testing.T) {
	mailer := &captureMailer{}
	archive := &fakeArchive{}
	notifier := NewDefaultOrderNotifier(mailer, archive, "orders@example.com")

	values := map[string]string{
		"occasion": "Birthday",
		"flavor":   "Chocolate",
		"name":     "Asha",
		"phone":    "+91 9000000000",
	}
	log := []models.Turn{
		models.TextTurn(models.RoleAssistant, "What's the occasion?"),
		models.TextTurn(models.RoleUser, "Birthday"),
		{Role: models.RoleUser, Parts: []models.ContentPart{{MIMEType: "image/png", Data: []byte{1}}}},
	}
	attachments := []models.Attachment{{URL: "https://img.example/cake.png", FileName: "cake.png"}}

	err := notifier.Notify(context.Background(), "sess-1", values, log, attachments)
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "orders@example.com", msg.Recipient)
	assert.Equal(t, "New Quick Order Request - Asha", msg.Subject)

	assert.Contains(t, msg.Body, "Birthday")
	assert.Contains(t, msg.Body, "Chocolate")
	assert.Contains(t, msg.Body, "Not provided", "empty slots get an explicit marker")
	assert.Contains(t, msg.Body, "https://img.example/cake.png")
	assert.Contains(t, msg.Body, "[USER]")
	assert.Contains(t, msg.Body, "[ASSISTANT]")
	assert.Contains(t, msg.Body, "(User attached an image)")
	assert.NotContains(t, msg.Body, "\x01", "raw media bytes must never leak into the body")

	require.Len(t, archive.records, 1)
	assert.Equal(t, "sess-1", archive.records[0].SessionID)
	assert.Equal(t, values, archive.records[0].Values)
	assert.NotEmpty(t, archive.records[0].Transcript)
}

func TestNotifyWithoutName(t *testing.T) {
	mailer := &captureMailer{}
	notifier := NewDefaultOrderNotifier(mailer, nil, "orders@example.com")

	err := notifier.Notify(context.Background(), "sess-2", map[string]string{}, nil, nil)
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "New Quick Order Request - Unknown Customer", mailer.sent[0].Subject)
}
