// File: services/gateway/interface.go
package gateway

import (
	"context"
	"time"

	"cakebox/models"
)

// Mode selects how the model is prompted.
type Mode string

const (
	// ModeFreeForm answers general questions from the bakery knowledge base.
	ModeFreeForm Mode = "free_form"
	// ModeSlotFilling extracts order fields and drives the quick order flow.
	ModeSlotFilling Mode = "slot_filling"
)

// SlotContext carries the slot-filling inputs. Unused for ModeFreeForm.
type SlotContext struct {
	Schema         models.SlotSchema
	Values         map[string]string
	LatestUserText string
	ImageAttached  bool
	// Today anchors the date lead-time rule; the zero value means time.Now().
	Today time.Time
}

// Reply is the gateway's validated result. Text is always set; Order is set
// only for ModeSlotFilling.
type Reply struct {
	Text  string
	Order *models.GatewayReply
}

// Gateway is the single integration point with the hosted generative model.
// The conversation log must end with the newest user turn. Failures are
// surfaced as *TransportError (call never completed) or *MalformedReplyError
// (call completed but the payload failed validation).
type Gateway interface {
	Converse(ctx context.Context, log []models.Turn, mode Mode, sc *SlotContext) (*Reply, error)
}
