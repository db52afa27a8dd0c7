package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/messmaestro/maestro/internal/domain/models"
)

const (
	ingredientsColl = "ingredients"
	uomsColl        = "uoms"
	menuCycleColl   = "menu_cycle"
	strengthsColl   = "monthly_strengths"
	listsColl       = "procurement_lists"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Repository defines the document store operations used by the service.
type Repository interface {
	GetIngredients(ctx context.Context) ([]models.Ingredient, error)
	GetUoms(ctx context.Context) ([]models.UnitOfMeasure, error)
	GetMenuCycle(ctx context.Context, day int) (*models.MenuCycleDay, error)
	GetStrengthForMonth(ctx context.Context, unitID string, year, month int) (*models.MonthlyStrength, error)
	SaveProcurementList(ctx context.Context, list models.ProcurementList) (string, error)
	GetProcurementList(ctx context.Context, id string) (*models.ProcurementList, error)
	ListProcurementLists(ctx context.Context, limit int64) ([]models.ProcurementList, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{client: client, dbName: dbName}, nil
}

func (r *MongoDBRepository) coll(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

// EnsureIndexes creates the lookup indexes the read paths rely on.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll(menuCycleColl).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "day", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to index menu cycle: %w", err)
	}

	_, err = r.coll(strengthsColl).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "unit_id", Value: 1}, {Key: "year", Value: 1}, {Key: "month", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to index monthly strengths: %w", err)
	}

	_, err = r.coll(listsColl).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "generated_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to index procurement lists: %w", err)
	}
	return nil
}

// GetIngredients returns the full ingredient catalogue.
func (r *MongoDBRepository) GetIngredients(ctx context.Context) ([]models.Ingredient, error) {
	var out []models.Ingredient
	if err := r.findAll(ctx, ingredientsColl, bson.D{}, &out); err != nil {
		return nil, fmt.Errorf("failed to load ingredients: %w", err)
	}
	return out, nil
}

// GetUoms returns every unit of measure.
func (r *MongoDBRepository) GetUoms(ctx context.Context) ([]models.UnitOfMeasure, error) {
	var out []models.UnitOfMeasure
	if err := r.findAll(ctx, uomsColl, bson.D{}, &out); err != nil {
		return nil, fmt.Errorf("failed to load uoms: %w", err)
	}
	return out, nil
}

// GetMenuCycle returns the menu for a cycle day, or nil when none is planned.
func (r *MongoDBRepository) GetMenuCycle(ctx context.Context, day int) (*models.MenuCycleDay, error) {
	var menu models.MenuCycleDay
	err := r.coll(menuCycleColl).FindOne(ctx, bson.D{{Key: "day", Value: day}}).Decode(&menu)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load menu cycle day %d: %w", day, err)
	}
	return &menu, nil
}

// GetStrengthForMonth returns a unit's strength record for a month, or nil
// when the month has not been planned.
func (r *MongoDBRepository) GetStrengthForMonth(ctx context.Context, unitID string, year, month int) (*models.MonthlyStrength, error) {
	filter := bson.D{
		{Key: "unit_id", Value: unitID},
		{Key: "year", Value: year},
		{Key: "month", Value: month},
	}

	var ms models.MonthlyStrength
	err := r.coll(strengthsColl).FindOne(ctx, filter).Decode(&ms)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load strength for %s %d-%02d: %w", unitID, year, month, err)
	}
	return &ms, nil
}

// SaveProcurementList stores a generated list and returns its id.
func (r *MongoDBRepository) SaveProcurementList(ctx context.Context, list models.ProcurementList) (string, error) {
	if list.ID == "" {
		list.ID = uuid.NewString()
	}
	if _, err := r.coll(listsColl).InsertOne(ctx, list); err != nil {
		return "", fmt.Errorf("failed to insert procurement list: %w", err)
	}
	return list.ID, nil
}

// GetProcurementList loads a saved list by id.
func (r *MongoDBRepository) GetProcurementList(ctx context.Context, id string) (*models.ProcurementList, error) {
	var list models.ProcurementList
	err := r.coll(listsColl).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&list)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load procurement list %s: %w", id, err)
	}
	return &list, nil
}

// ListProcurementLists returns the most recently generated lists first.
func (r *MongoDBRepository) ListProcurementLists(ctx context.Context, limit int64) ([]models.ProcurementList, error) {
	opts := options.Find().SetSort(bson.D{{Key: "generated_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	out := []models.ProcurementList{}
	if err := r.findAll(ctx, listsColl, bson.D{}, &out, opts); err != nil {
		return nil, fmt.Errorf("failed to list procurement lists: %w", err)
	}
	return out, nil
}

func (r *MongoDBRepository) findAll(ctx context.Context, coll string, filter bson.D, results any, opts ...*options.FindOptions) error {
	cursor, err := r.coll(coll).Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	return cursor.All(ctx, results)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
