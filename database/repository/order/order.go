package orderRepo

import (
	"context"

	"cakebox/config"
	"cakebox/database"
	"cakebox/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// OrderRecordRepository archives finalized quick orders. The archive is
// write-only from this service; the bakery team reads it with their own
// tooling.
type OrderRecordRepository interface {
	Create(ctx context.Context, record models.OrderRecord) (string, error)
}

type mongoOrderRepo struct {
	coll *mongo.Collection
}

// NewMongoOrderRepo returns a new OrderRecordRepository instance using MongoDB.
func NewMongoOrderRepo() OrderRecordRepository {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &mongoOrderRepo{
		coll: db.Collection("orders"),
	}
}
