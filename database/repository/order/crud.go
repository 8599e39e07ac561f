package orderRepo

import (
	"context"
	"time"

	"cakebox/models"

	"github.com/google/uuid"
)

// Create inserts a new order record and returns its ID.
func (r *mongoOrderRepo) Create(ctx context.Context, record models.OrderRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := r.coll.InsertOne(ctx, record)
	if err != nil {
		return "", err
	}
	return record.ID, nil
}
