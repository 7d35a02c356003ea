package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/citypulse/internal/database"
	"github.com/BradenHooton/citypulse/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type reportDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	CitizenID   primitive.ObjectID `bson:"citizenId"`
	Type        string             `bson:"type"`
	Description string             `bson:"description"`
	Lat         *float64           `bson:"lat,omitempty"`
	Lng         *float64           `bson:"lng,omitempty"`
	Status      string             `bson:"status"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
	ResolvedAt  *time.Time         `bson:"resolvedAt,omitempty"`

	// populated by $lookup on reads
	Citizen []userDocument `bson:"citizen,omitempty"`
}

func (d *reportDocument) toModel() *models.Report {
	report := &models.Report{
		ID:          d.ID.Hex(),
		CitizenID:   d.CitizenID.Hex(),
		Type:        d.Type,
		Description: d.Description,
		Lat:         d.Lat,
		Lng:         d.Lng,
		Status:      models.Status(d.Status),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.ResolvedAt != nil {
		resolved := d.ResolvedAt.UTC()
		report.ResolvedAt = &resolved
	}
	if len(d.Citizen) > 0 {
		report.CitizenUsername = d.Citizen[0].Username
	}
	return report
}

// MongoReportRepository is the MongoDB report store. ObjectIDs are generated
// in-process, so sorting by _id yields insertion order.
type MongoReportRepository struct {
	reports *mongo.Collection
}

func NewMongoReportRepository(db *database.MongoDB) *MongoReportRepository {
	return &MongoReportRepository{reports: db.DB.Collection(database.ReportsCollection)}
}

// resolveCitizen builds the pipeline that filters reports and joins the owning user
func resolveCitizen(match bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: database.UsersCollection},
			{Key: "localField", Value: "citizenId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "citizen"},
		}}},
	}
}

func (r *MongoReportRepository) aggregate(ctx context.Context, match bson.M) ([]*models.Report, error) {
	cursor, err := r.reports.Aggregate(ctx, resolveCitizen(match))
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := make([]*models.Report, 0)
	for cursor.Next(ctx) {
		var doc reportDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
		reports = append(reports, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}

func (r *MongoReportRepository) Create(ctx context.Context, input models.NewReport, now time.Time) (*models.Report, error) {
	citizenID, err := primitive.ObjectIDFromHex(input.CitizenID)
	if err != nil {
		return nil, models.ErrValidation
	}

	now = now.UTC().Truncate(time.Millisecond) // BSON dates are millisecond precision
	doc := reportDocument{
		ID:          primitive.NewObjectID(),
		CitizenID:   citizenID,
		Type:        input.Type,
		Description: input.Description,
		Lat:         input.Lat,
		Lng:         input.Lng,
		Status:      string(models.StatusNotDone),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.reports.InsertOne(ctx, doc); err != nil {
		return nil, MapMongoError(err)
	}
	return r.GetByID(ctx, doc.ID.Hex())
}

func (r *MongoReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	reports, err := r.aggregate(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, models.ErrNotFound
	}
	return reports[0], nil
}

func (r *MongoReportRepository) ListByCitizen(ctx context.Context, citizenID string) ([]*models.Report, error) {
	oid, err := primitive.ObjectIDFromHex(citizenID)
	if err != nil {
		return []*models.Report{}, nil
	}
	return r.aggregate(ctx, bson.M{"citizenId": oid})
}

func (r *MongoReportRepository) ListAll(ctx context.Context) ([]*models.Report, error) {
	return r.aggregate(ctx, bson.M{})
}

// UpdateStatus sets the status and refreshes updatedAt with $max so the
// stored value never moves backwards. resolvedAt follows the same rules as the
// PostgreSQL store: stamped on entering finished, kept on a repeated finished,
// removed on reopen.
func (r *MongoReportRepository) UpdateStatus(ctx context.Context, id string, status models.Status, now time.Time) (*models.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	now = now.UTC()
	resolvedAt := interface{}("$$REMOVE")
	if status == models.StatusFinished {
		resolvedAt = bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$status", string(models.StatusFinished)}}},
			bson.D{{Key: "$ifNull", Value: bson.A{"$resolvedAt", now}}},
			now,
		}}}
	}

	// update pipeline so resolvedAt can depend on the previous status
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "resolvedAt", Value: resolvedAt},
			{Key: "status", Value: string(status)},
			{Key: "updatedAt", Value: bson.D{{Key: "$max", Value: bson.A{"$updatedAt", now}}}},
		}}},
	}
	res, err := r.reports.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return nil, MapMongoError(err)
	}
	if res.MatchedCount == 0 {
		return nil, models.ErrNotFound
	}

	return r.GetByID(ctx, id)
}
