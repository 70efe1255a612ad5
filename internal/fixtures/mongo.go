package fixtures

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ Store = (*MongoStore)(nil)

const (
	gamesCollection   = "fixture"
	leaguesCollection = "league"
	clubsCollection   = "club"
)

// MongoStore implements Store on MongoDB.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) UpsertGames(ctx context.Context, games []Game) error {
	coll := s.db.Collection(gamesCollection)
	opts := options.Update().SetUpsert(true)
	for _, g := range games {
		// The mongo _id never travels with provider payloads; $set without
		// it keeps the existing document identity on refresh.
		g.ID = primitive.NilObjectID
		_, err := coll.UpdateOne(ctx,
			bson.M{"fixture.id": g.Fixture.ID},
			bson.M{"$set": g},
			opts)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *MongoStore) FindGames(ctx context.Context, f Filter) ([]Game, error) {
	filter := bson.M{}
	var selector bson.A
	if len(f.Leagues) > 0 {
		selector = append(selector, bson.M{"league.id": bson.M{"$in": f.Leagues}})
	}
	if len(f.Clubs) > 0 {
		selector = append(selector,
			bson.M{"teams.home.id": bson.M{"$in": f.Clubs}},
			bson.M{"teams.away.id": bson.M{"$in": f.Clubs}})
	}
	if f.BetsOnly {
		selector = append(selector, bson.M{"season_id": bson.M{"$ne": nil}})
	}
	if f.PotentialBets {
		selector = append(selector, bson.M{"odds": bson.M{"$ne": nil}})
	}
	if f.Date != "" {
		// Fixture dates are RFC 3339; a day filter is a prefix match.
		filter["fixture.date"] = bson.M{"$regex": "^" + f.Date}
	}
	if len(selector) > 0 {
		filter["$or"] = selector
	}

	var opts *options.FindOptions
	if f.Limit > 0 {
		opts = options.Find().SetLimit(f.Limit)
	}
	cur, err := s.db.Collection(gamesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var out []Game
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) SetBetStatus(ctx context.Context, fixtureID int64, seasonID *int64) error {
	res, err := s.db.Collection(gamesCollection).UpdateOne(ctx,
		bson.M{"fixture.id": fixtureID},
		bson.M{"$set": bson.M{"season_id": seasonID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) AttachOdds(ctx context.Context, fixtureID int64, odds Odds) error {
	res, err := s.db.Collection(gamesCollection).UpdateOne(ctx,
		bson.M{"fixture.id": fixtureID},
		bson.M{"$set": bson.M{"odds": odds}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) PlaceBet(ctx context.Context, fixtureID, userID int64, result GameResult, now time.Time) error {
	coll := s.db.Collection(gamesCollection)

	// First try to update an existing stake of this user.
	res, err := coll.UpdateOne(ctx,
		bson.M{
			"fixture.id":        fixtureID,
			"betters.user_id":   userID,
			"fixture.timestamp": bson.M{"$gte": now.Unix()},
		},
		bson.M{"$set": bson.M{"betters.$.game_result": result}})
	if err != nil {
		return err
	}
	if res.ModifiedCount > 0 {
		return nil
	}

	// No stake yet: append one, still guarded by the kickoff timestamp.
	res, err = coll.UpdateOne(ctx,
		bson.M{
			"fixture.id":        fixtureID,
			"fixture.timestamp": bson.M{"$gte": now.Unix()},
		},
		bson.M{"$addToSet": bson.M{"betters": Better{UserID: userID, Result: result}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrGameStarted
	}
	return nil
}

func (s *MongoStore) UpsertLeagues(ctx context.Context, leagues []League) error {
	coll := s.db.Collection(leaguesCollection)
	opts := options.Update().SetUpsert(true)
	for _, l := range leagues {
		_, err := coll.UpdateOne(ctx, bson.M{"id": l.ID}, bson.M{"$set": l}, opts)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *MongoStore) ListLeagues(ctx context.Context, ids []int64) ([]League, error) {
	filter := bson.M{}
	if len(ids) > 0 {
		filter["id"] = bson.M{"$in": ids}
	}
	cur, err := s.db.Collection(leaguesCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "country", Value: 1}, {Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []League
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) UpsertClubs(ctx context.Context, clubs []Club) error {
	coll := s.db.Collection(clubsCollection)
	opts := options.Update().SetUpsert(true)
	for _, c := range clubs {
		_, err := coll.UpdateOne(ctx, bson.M{"id": c.ID}, bson.M{"$set": c}, opts)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *MongoStore) ListClubs(ctx context.Context, ids []int64) ([]Club, error) {
	filter := bson.M{}
	if len(ids) > 0 {
		filter["id"] = bson.M{"$in": ids}
	}
	cur, err := s.db.Collection(clubsCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []Club
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
