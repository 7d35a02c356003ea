package repositories

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/BradenHooton/citypulse/internal/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestMapMongoError(t *testing.T) {
	other := errors.New("socket closed")
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}

	assert.NoError(t, MapMongoError(nil))
	assert.ErrorIs(t, MapMongoError(mongo.ErrNoDocuments), models.ErrNotFound)
	assert.ErrorIs(t, MapMongoError(fmt.Errorf("find: %w", mongo.ErrNoDocuments)), models.ErrNotFound)
	assert.ErrorIs(t, MapMongoError(dup), models.ErrDuplicateUsername)
	assert.Equal(t, other, MapMongoError(other))
}

func TestReportDocument_RoundTrip(t *testing.T) {
	lat, lng := 19.9975, 73.7898
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	citizen := primitive.NewObjectID()

	doc := reportDocument{
		ID:          primitive.NewObjectID(),
		CitizenID:   citizen,
		Type:        "pothole",
		Description: "deep one",
		Lat:         &lat,
		Lng:         &lng,
		Status:      string(models.StatusInProgress),
		CreatedAt:   created,
		UpdatedAt:   created.Add(time.Hour),
		Citizen:     []userDocument{{ID: citizen, Username: "asha"}},
	}

	raw, err := bson.Marshal(doc)
	assert.NoError(t, err)

	var decoded reportDocument
	assert.NoError(t, bson.Unmarshal(raw, &decoded))

	report := decoded.toModel()
	assert.Equal(t, doc.ID.Hex(), report.ID)
	assert.Equal(t, citizen.Hex(), report.CitizenID)
	assert.Equal(t, "asha", report.CitizenUsername)
	assert.Equal(t, models.StatusInProgress, report.Status)
	assert.Equal(t, created, report.CreatedAt)
	assert.Equal(t, created.Add(time.Hour), report.UpdatedAt)
	assert.InDelta(t, lat, *report.Lat, 1e-9)
}

func TestReportDocument_WithoutPosition(t *testing.T) {
	doc := reportDocument{ID: primitive.NewObjectID(), Type: "garbage", Status: string(models.StatusNotDone)}

	raw, err := bson.Marshal(doc)
	assert.NoError(t, err)

	var fields bson.M
	assert.NoError(t, bson.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "lat")
	assert.NotContains(t, fields, "lng")
	assert.NotContains(t, fields, "citizen")

	report := doc.toModel()
	assert.Nil(t, report.Lat)
	assert.Empty(t, report.CitizenUsername)
}

func TestUserDocument_PasswordHashKey(t *testing.T) {
	doc := userDocument{ID: primitive.NewObjectID(), Username: "asha", PasswordHash: "$2a$12$hash", Role: models.RoleCitizen}

	raw, err := bson.Marshal(doc)
	assert.NoError(t, err)

	var fields bson.M
	assert.NoError(t, bson.Unmarshal(raw, &fields))
	assert.Equal(t, "$2a$12$hash", fields["passwordHash"])
	assert.NotContains(t, fields, "password")
}

func TestUserDocument_DecodesExistingLayout(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"_id":          primitive.NewObjectID(),
		"username":     "officer1",
		"passwordHash": "$2a$10$stored",
		"role":         models.RoleOfficer,
	})
	assert.NoError(t, err)

	var doc userDocument
	assert.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, "$2a$10$stored", doc.toModel().PasswordHash)
}

func TestReportDocument_ResolvedAt(t *testing.T) {
	resolved := time.Date(2024, 3, 3, 11, 0, 0, 0, time.UTC)
	doc := reportDocument{ID: primitive.NewObjectID(), Status: string(models.StatusFinished), ResolvedAt: &resolved}

	raw, err := bson.Marshal(doc)
	assert.NoError(t, err)

	var decoded reportDocument
	assert.NoError(t, bson.Unmarshal(raw, &decoded))
	report := decoded.toModel()
	if assert.NotNil(t, report.ResolvedAt) {
		assert.Equal(t, resolved, *report.ResolvedAt)
	}

	open := reportDocument{ID: primitive.NewObjectID(), Status: string(models.StatusNotDone)}
	raw, err = bson.Marshal(open)
	assert.NoError(t, err)
	var fields bson.M
	assert.NoError(t, bson.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "resolvedAt")
}
