package models

import "strings"

// SlotDefinition is one field of the order to be collected during the quick
// order flow. Essential slots must be filled before a summary can be offered.
type SlotDefinition struct {
	Key       string `json:"key"`
	Prompt    string `json:"question"`
	Essential bool   `json:"essential,omitempty"`
}

// Label derives a short human-readable label from the slot prompt, used when
// rendering the order summary for the bakery team.
func (d SlotDefinition) Label() string {
	label := d.Prompt
	if i := strings.Index(label, "?"); i >= 0 {
		label = label[:i]
	}
	if i := strings.Index(label, "."); i >= 0 {
		label = label[:i]
	}
	return strings.TrimSpace(label)
}

// SlotSchema is the static, ordered list of order slots. Order defines the
// default ask order and the tie-break priority for essential fields.
type SlotSchema []SlotDefinition

// Keys returns the slot keys in schema order.
func (s SlotSchema) Keys() []string {
	keys := make([]string, 0, len(s))
	for _, d := range s {
		keys = append(keys, d.Key)
	}
	return keys
}

// Lookup returns the definition for the given key.
func (s SlotSchema) Lookup(key string) (SlotDefinition, bool) {
	for _, d := range s {
		if d.Key == key {
			return d, true
		}
	}
	return SlotDefinition{}, false
}

// EssentialKeys returns the keys of all essential slots in schema order.
func (s SlotSchema) EssentialKeys() []string {
	var keys []string
	for _, d := range s {
		if d.Essential {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

// MissingEssential returns the first essential key without a non-empty value,
// or "" if every essential slot is filled.
func (s SlotSchema) MissingEssential(values map[string]string) string {
	for _, d := range s {
		if d.Essential && strings.TrimSpace(values[d.Key]) == "" {
			return d.Key
		}
	}
	return ""
}

// OrderSlots are the fields collected for a custom cake order.
var OrderSlots = SlotSchema{
	{Key: "occasion", Prompt: "Great! Let's get your order started. What's the occasion for the cake? (e.g., Birthday, Anniversary, Just Because)", Essential: true},
	{Key: "flavor", Prompt: "What flavor would you like for your cake? (e.g., Chocolate, Vanilla, Butterscotch, Red Velvet, or ask for options)", Essential: true},
	{Key: "size", Prompt: "What size cake do you need, or how many people should it serve?", Essential: true},
	{Key: "design", Prompt: "Do you have any specific design ideas, theme, or colors in mind? You can describe it, or upload an image using the attach button. If uploading, type 'see image' or similar.", Essential: true},
	{Key: "dietary", Prompt: "Would you prefer an egg-based or eggless cake? (e.g., Eggless, With Egg)"},
	{Key: "message", Prompt: "Is there any personalized message you'd like on the cake? (Type 'none' if not needed)"},
	{Key: "date", Prompt: "What date do you need the cake for?", Essential: true},
	{Key: "address", Prompt: "What is the delivery address within Siliguri?", Essential: true},
	{Key: "name", Prompt: "Can I get your name for the order?", Essential: true},
	{Key: "phone", Prompt: "And lastly, what is a good contact phone number?", Essential: true},
}

// Phase is the controller's position in the order-collection state machine.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseAskingSlot           Phase = "asking_slot"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
)

// Cursor pairs a phase with the slot being asked, when applicable.
type Cursor struct {
	Phase   Phase  `json:"phase"`
	SlotKey string `json:"slotKey,omitempty"`
}

// OrderState is the per-session order under construction. Values keys are a
// subset of the schema keys; the model may fill slots opportunistically when
// the user volunteers information out of order.
type OrderState struct {
	Values map[string]string `json:"values"`
	Cursor Cursor            `json:"cursor"`
}

// NewOrderState returns an empty, idle order.
func NewOrderState() OrderState {
	return OrderState{
		Values: make(map[string]string),
		Cursor: Cursor{Phase: PhaseIdle},
	}
}

// Merge folds the gateway's updated values into the order. New and changed
// keys overwrite; keys absent from updates are retained, so previously
// collected data is never silently dropped.
func (o *OrderState) Merge(updates map[string]string) {
	if o.Values == nil {
		o.Values = make(map[string]string)
	}
	for k, v := range updates {
		if strings.TrimSpace(v) == "" {
			continue
		}
		o.Values[k] = v
	}
}

// NextKeySummary is the gateway's signal that all essential slots are filled
// and the order is ready for summary confirmation.
const NextKeySummary = "summary"

// GatewayReply is the structured slot-filling response from the model.
type GatewayReply struct {
	UpdatedValues map[string]string `json:"updatedOrderData"`
	NextKey       string            `json:"nextQuestionKey"`
	ResponseText  string            `json:"botResponseText"`
}
