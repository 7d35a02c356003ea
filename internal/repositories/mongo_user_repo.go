package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/BradenHooton/citypulse/internal/database"
	"github.com/BradenHooton/citypulse/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// userDocument is the stored shape of a user in the users collection.
// The bcrypt hash lives under "passwordHash", the key existing City_Pulse data uses.
type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"passwordHash"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		CreatedAt:    d.CreatedAt,
	}
}

// MapMongoError translates driver errors into models sentinels
func MapMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return models.ErrDuplicateUsername
	}
	return err
}

type MongoUserRepository struct {
	users *mongo.Collection
}

func NewMongoUserRepository(db *database.MongoDB) *MongoUserRepository {
	return &MongoUserRepository{users: db.DB.Collection(database.UsersCollection)}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		CreatedAt:    user.CreatedAt,
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		return nil, MapMongoError(err)
	}
	return doc.toModel(), nil
}

func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		return nil, MapMongoError(err)
	}
	return doc.toModel(), nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	var doc userDocument
	if err := r.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, MapMongoError(err)
	}
	return doc.toModel(), nil
}
