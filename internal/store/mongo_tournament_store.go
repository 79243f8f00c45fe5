package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/tiebreak/internal/bracket"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	tournamentsCollection = "tournaments"
	maxUpdateAttempts     = 5
)

// caseInsensitive makes equality on strings ignore case (strength 2 compares base letters and accents).
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// MongoTournamentStore keeps each tournament aggregate as one document.
// Writes are guarded by a revision counter instead of multi-document transactions,
// so a standalone server is enough.
type MongoTournamentStore struct {
	coll *mongo.Collection
}

type tournamentDocument struct {
	bracket.Tournament `bson:",inline"`
	Revision           int64 `bson:"revision"`
}

func NewMongoTournamentStore(db *mongo.Database) *MongoTournamentStore {
	return &MongoTournamentStore{coll: db.Collection(tournamentsCollection)}
}

// EnsureIndexes creates the indexes the lookups rely on. Safe to call on every start.
func (s *MongoTournamentStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetCollation(caseInsensitive)},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "isDemo", Value: 1}, {Key: "createdAt", Value: 1}}},
	})
	return err
}

func (s *MongoTournamentStore) Create(ctx context.Context, t *bracket.Tournament) error {
	doc := tournamentDocument{Tournament: *t, Revision: 1}
	doc.CreatedAt = t.CreatedAt.UTC()
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert tournament: %w", err)
	}
	return nil
}

func (s *MongoTournamentStore) Get(ctx context.Context, id string) (*bracket.Tournament, error) {
	doc, err := s.findOne(ctx, bson.M{"_id": id}, options.FindOne())
	if err != nil {
		return nil, err
	}
	return &doc.Tournament, nil
}

func (s *MongoTournamentStore) FindByName(ctx context.Context, name string) (*bracket.Tournament, error) {
	opts := options.FindOne().
		SetCollation(caseInsensitive).
		SetSort(bson.D{{Key: "createdAt", Value: 1}})
	doc, err := s.findOne(ctx, bson.M{"name": name}, opts)
	if err != nil {
		return nil, err
	}
	return &doc.Tournament, nil
}

func (s *MongoTournamentStore) List(ctx context.Context) ([]*bracket.Tournament, error) {
	return s.find(ctx, bson.M{})
}

func (s *MongoTournamentStore) ListByOwner(ctx context.Context, ownerID string) ([]*bracket.Tournament, error) {
	return s.find(ctx, bson.M{"ownerId": ownerID})
}

// Update retries when another writer bumped the revision between our read and write.
func (s *MongoTournamentStore) Update(ctx context.Context, id string, fn UpdateFunc) (*bracket.Tournament, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		doc, err := s.findOne(ctx, bson.M{"_id": id}, options.FindOne())
		if err != nil {
			return nil, err
		}

		next, err := fn(&doc.Tournament)
		if err != nil {
			return nil, err
		}
		next.ID = id

		replacement := tournamentDocument{Tournament: *next, Revision: doc.Revision + 1}
		res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": id, "revision": doc.Revision}, replacement)
		if err != nil {
			return nil, fmt.Errorf("failed to replace tournament: %w", err)
		}
		if res.MatchedCount == 1 {
			return next, nil
		}
	}
	return nil, ErrConflict
}

func (s *MongoTournamentStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoTournamentStore) DeleteDemosCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"isDemo": true, "createdAt": bson.M{"$lt": cutoff.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *MongoTournamentStore) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*tournamentDocument, error) {
	var doc tournamentDocument
	if err := s.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (s *MongoTournamentStore) find(ctx context.Context, filter bson.M) ([]*bracket.Tournament, error) {
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tournaments := make([]*bracket.Tournament, 0)
	for cursor.Next(ctx) {
		var doc tournamentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		t := doc.Tournament
		tournaments = append(tournaments, &t)
	}
	return tournaments, cursor.Err()
}
