package mongodb

import (
	"context"
	"fmt"
	"time"

	"meetbot_server/core/domain"
	"meetbot_server/core/port/out"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const birthdayCollection = "birthdays"

// BirthdayAdapter implements out.BirthdayRepository on MongoDB.
type BirthdayAdapter struct {
	collection *mongo.Collection
}

// NewBirthdayAdapter creates a new BirthdayAdapter.
func NewBirthdayAdapter(client *mongo.Client, database string) *BirthdayAdapter {
	return &BirthdayAdapter{
		collection: client.Database(database).Collection(birthdayCollection),
	}
}

type birthdayDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Date      string             `bson:"date"`
	Phone     string             `bson:"phone"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d *birthdayDoc) toDomain() *domain.Birthday {
	return &domain.Birthday{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Date:      d.Date,
		Phone:     d.Phone,
		CreatedAt: d.CreatedAt,
	}
}

// List returns every birthday record. The collection is small and read once
// a day, so no pagination.
func (a *BirthdayAdapter) List(ctx context.Context) ([]*domain.Birthday, error) {
	cursor, err := a.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find birthdays: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*domain.Birthday
	for cursor.Next(ctx) {
		var doc birthdayDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode birthday: %w", err)
		}
		results = append(results, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate birthdays: %w", err)
	}
	return results, nil
}

// Create inserts a record and backfills its generated id.
func (a *BirthdayAdapter) Create(ctx context.Context, b *domain.Birthday) error {
	doc := birthdayDoc{
		Name:      b.Name,
		Date:      b.Date,
		Phone:     b.Phone,
		CreatedAt: time.Now().UTC(),
	}

	result, err := a.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert birthday: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		b.ID = oid.Hex()
	}
	b.CreatedAt = doc.CreatedAt
	return nil
}

// Delete removes a record by id.
func (a *BirthdayAdapter) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid birthday id: %w", err)
	}

	result, err := a.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete birthday: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("birthday %s: not found", id)
	}
	return nil
}

var _ out.BirthdayRepository = (*BirthdayAdapter)(nil)
