package models

import "time"

// OrderRecord is a finalized quick order as archived for the bakery team.
type OrderRecord struct {
	ID          string            `json:"id" bson:"id"`
	SessionID   string            `json:"sessionId" bson:"sessionId"`
	Values      map[string]string `json:"values" bson:"values"`
	Attachments []Attachment      `json:"attachments,omitempty" bson:"attachments,omitempty"`
	Transcript  string            `json:"transcript" bson:"transcript"`
	CreatedAt   time.Time         `json:"createdAt" bson:"createdAt"`
}
