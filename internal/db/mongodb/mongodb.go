package mongodb

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AI2HU/heatmap/internal/db"
	"github.com/AI2HU/heatmap/internal/models"
	"github.com/AI2HU/heatmap/internal/shared"
)

const defaultCollection = "response_records"

// MongoDB implements the RecordSource interface for MongoDB
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	config   *models.Config
}

// New creates a new MongoDB record source
func New(config *models.Config) (*MongoDB, error) {
	if config.URI == "" || config.Database == "" {
		return nil, fmt.Errorf("mongodb uri and database name are required")
	}
	return &MongoDB{
		config: config,
	}, nil
}

// Connect establishes connection to MongoDB
func (m *MongoDB) Connect(ctx context.Context) error {
	clientOptions := options.Client().ApplyURI(m.config.URI)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m.client = client
	m.database = client.Database(m.config.Database)

	if m.config.Options["create_indexes"] == "true" {
		if err := m.createIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	return nil
}

// Disconnect closes the MongoDB connection
func (m *MongoDB) Disconnect(ctx context.Context) error {
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}
	return nil
}

// Ping checks the database connection
func (m *MongoDB) Ping(ctx context.Context) error {
	if m.client == nil {
		return db.ErrNotConnected
	}
	return m.client.Ping(ctx, nil)
}

func (m *MongoDB) collection() *mongo.Collection {
	name := m.config.Table
	if name == "" {
		name = defaultCollection
	}
	return m.database.Collection(name)
}

// createIndexes creates the indexes the week and matrix queries rely on
func (m *MongoDB) createIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "execution_week", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "prompt_id", Value: 1},
				{Key: "model_name", Value: 1},
			},
		},
	}

	_, err := m.collection().Indexes().CreateMany(ctx, indexes)
	return err
}

// ListRecords returns raw response documents ordered by week
func (m *MongoDB) ListRecords(ctx context.Context, filter shared.RecordFilter) ([]models.RawRecord, error) {
	if m.database == nil {
		return nil, db.ErrNotConnected
	}

	query := weekQuery(filter)
	opts := options.Find().SetSort(bson.D{{Key: "execution_week", Value: 1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := m.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.RawRecord
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			records = append(records, models.RawRecord{DecodeError: err.Error()})
			continue
		}
		records = append(records, toRawRecord(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}

	return records, nil
}

// ListWeeks returns the distinct execution weeks in ascending order
func (m *MongoDB) ListWeeks(ctx context.Context) ([]int, error) {
	if m.database == nil {
		return nil, db.ErrNotConnected
	}

	pipeline := []bson.M{
		{
			"$match": bson.M{
				"execution_week": bson.M{"$ne": nil},
			},
		},
		{
			"$group": bson.M{
				"_id": "$execution_week",
			},
		},
		{
			"$sort": bson.M{"_id": 1},
		},
	}

	cursor, err := m.collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate weeks: %w", err)
	}
	defer cursor.Close(ctx)

	weeks := []int{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode week: %w", err)
		}
		if week, err := getInt(doc, "_id"); err == nil && week != nil {
			weeks = append(weeks, *week)
		}
	}

	return weeks, cursor.Err()
}

func weekQuery(filter shared.RecordFilter) bson.M {
	query := bson.M{}
	if filter.MinWeek > 0 || filter.MaxWeek > 0 {
		weekRange := bson.M{}
		if filter.MinWeek > 0 {
			weekRange["$gte"] = filter.MinWeek
		}
		if filter.MaxWeek > 0 {
			weekRange["$lte"] = filter.MaxWeek
		}
		query["execution_week"] = weekRange
	}
	return query
}

// getBlob returns a pass-through field with bson containers converted to plain maps and slices
func getBlob(doc bson.M, key string) interface{} {
	return plain(doc[key])
}

func plain(v interface{}) interface{} {
	switch val := v.(type) {
	case bson.M:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = plain(item)
		}
		return out
	case bson.D:
		out := make(map[string]interface{}, len(val))
		for _, e := range val {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = plain(item)
		}
		return out
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}

// toRawRecord extracts a response document field by field. Type mismatches on
// numeric fields are recorded on DecodeError so the normalizer skips the row.
func toRawRecord(doc bson.M) models.RawRecord {
	raw := models.RawRecord{
		ID:             models.RecordID(getID(doc)),
		ExecutionID:    getString(doc, "execution_id"),
		ExecutionDate:  getTimeString(doc, "execution_date", "2006-01-02"),
		PromptID:       getString(doc, "prompt_id"),
		PromptCategory: getString(doc, "prompt_category"),
		PromptText:     getString(doc, "prompt_text"),
		ModelName:      getString(doc, "model_name"),
		ModelResponses: getString(doc, "model_responses"),
		Timestamp:      getTimeString(doc, "timestamp", time.RFC3339Nano),
		Citations:      getBlob(doc, "citations"),
		Vendors:        getBlob(doc, "vendors"),
		Features:       getBlob(doc, "features"),
		RiskFlags:      getBlob(doc, "risk_flags"),
	}

	var err error
	if raw.ExecutionWeek, err = getInt(doc, "execution_week"); err != nil {
		raw.DecodeError = err.Error()
	}
	if raw.Mentions, err = getInt(doc, "inecta_mentions"); err != nil && raw.DecodeError == "" {
		raw.DecodeError = err.Error()
	}
	if raw.Ranking, err = getInt(doc, "inecta_ranking"); err != nil && raw.DecodeError == "" {
		raw.DecodeError = err.Error()
	}
	raw.Sentiment = getFloat(doc, "inecta_sentiment")

	return raw
}

// Helper functions for safe field extraction
func getString(doc bson.M, key string) string {
	if val, ok := doc[key]; ok && val != nil {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// getID prefers the row's own id over the document _id
func getID(doc bson.M) string {
	for _, key := range []string{"id", "_id"} {
		switch v := doc[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case primitive.ObjectID:
			return v.Hex()
		case int32:
			return strconv.Itoa(int(v))
		case int64:
			return strconv.FormatInt(v, 10)
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func getInt(doc bson.M, key string) (*int, error) {
	val, ok := doc[key]
	if !ok || val == nil {
		return nil, nil
	}

	var n int
	switch v := val.(type) {
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case int:
		n = v
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("%s: %v is not an integer", key, v)
		}
		n = int(v)
	default:
		return nil, fmt.Errorf("%s: unexpected type %T", key, val)
	}
	return &n, nil
}

func getFloat(doc bson.M, key string) *float64 {
	var f float64
	switch v := doc[key].(type) {
	case float64:
		f = v
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		return nil
	}
	return &f
}

func getTime(doc bson.M, key string) time.Time {
	if val, ok := doc[key]; ok && val != nil {
		// Handle time.Time directly
		if t, ok := val.(time.Time); ok {
			return t
		}
		// Handle primitive.DateTime
		if dt, ok := val.(primitive.DateTime); ok {
			return dt.Time()
		}
	}
	return time.Time{}
}

// getTimeString returns string dates as stored and formats BSON dates
func getTimeString(doc bson.M, key, layout string) string {
	if str := getString(doc, key); str != "" {
		return str
	}
	if t := getTime(doc, key); !t.IsZero() {
		return t.UTC().Format(layout)
	}
	return ""
}
