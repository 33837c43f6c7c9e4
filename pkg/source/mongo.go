package source

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/family"
)

// DefaultCollection holds one document per person.
const DefaultCollection = "persons"

// MongoSource loads families from a MongoDB collection of person records.
type MongoSource struct {
	client *mongo.Client
	coll   *mongo.Collection
	opts   Options
}

// NewMongoSource connects to uri and uses collection coll of database db.
// An empty coll uses [DefaultCollection]. The connection is pinged with
// retries before returning.
func NewMongoSource(ctx context.Context, uri, db, coll string, opts Options) (*MongoSource, error) {
	if coll == "" {
		coll = DefaultCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		return cache.Retryable(client.Ping(ctx, nil))
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: mongo: %v", cache.ErrUnavailable, err)
	}
	return &MongoSource{client: client, coll: client.Database(db).Collection(coll), opts: opts}, nil
}

func (s *MongoSource) Name() string { return "mongo" }

func (s *MongoSource) Limits() Options { return s.opts.WithDefaults() }

func (s *MongoSource) Family(ctx context.Context, protocolKey string) (Family, error) {
	return expand(ctx, s, protocolKey, s.opts)
}

func (s *MongoSource) Close() error {
	return s.client.Disconnect(context.Background())
}

// personRecord is the stored shape of a person.
type personRecord struct {
	ID          any    `bson:"_id"`
	Name        string `bson:"name"`
	Gender      string `bson:"gender,omitempty"`
	BirthYear   *int   `bson:"birth_year,omitempty"`
	DeathYear   *int   `bson:"death_year,omitempty"`
	FatherID    any    `bson:"father_id,omitempty"`
	MotherID    any    `bson:"mother_id,omitempty"`
	SpouseIDs   []any  `bson:"spouse_ids,omitempty"`
	ProtocolKey string `bson:"protocol_key,omitempty"`
	HouseNumber any    `bson:"house_number,omitempty"`
	Notes       string `bson:"notes,omitempty"`
}

func (r personRecord) person() family.Person {
	p := family.Person{
		ID:          refString(r.ID),
		Name:        r.Name,
		Gender:      family.ParseGender(r.Gender),
		FatherID:    refString(r.FatherID),
		MotherID:    refString(r.MotherID),
		ProtocolKey: r.ProtocolKey,
		HouseNumber: refString(r.HouseNumber),
		Notes:       r.Notes,
	}
	if r.BirthYear != nil {
		p.BirthYear = family.YearOf(*r.BirthYear)
	}
	if r.DeathYear != nil {
		p.DeathYear = family.YearOf(*r.DeathYear)
	}
	for _, s := range r.SpouseIDs {
		p.SpouseIDs = append(p.SpouseIDs, refString(s))
	}
	return family.Normalize(p)
}

// refString renders a stored id. Imported collections mix string, integer
// and ObjectID ids.
func refString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case primitive.ObjectID:
		return t.Hex()
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

// idValues lists every stored spelling an id may have, so string ids match
// integer keys.
func idValues(ids []string) bson.A {
	vals := make(bson.A, 0, 2*len(ids))
	for _, id := range ids {
		vals = append(vals, id)
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			vals = append(vals, n)
		}
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			vals = append(vals, oid)
		}
	}
	return vals
}

// relatedFilter matches the people in ids and everyone referencing them.
func relatedFilter(ids []string) bson.M {
	in := bson.M{"$in": idValues(ids)}
	return bson.M{"$or": bson.A{
		bson.M{"_id": in},
		bson.M{"father_id": in},
		bson.M{"mother_id": in},
		bson.M{"spouse_ids": in},
	}}
}

func (s *MongoSource) root(ctx context.Context, key string) (family.Person, bool, error) {
	var rec personRecord
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	err := s.coll.FindOne(ctx, bson.M{"protocol_key": key}, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return family.Person{}, false, nil
	}
	if err != nil {
		return family.Person{}, false, err
	}
	return rec.person(), true, nil
}

func (s *MongoSource) related(ctx context.Context, ids []string) ([]family.Person, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, relatedFilter(ids), opts)
	if err != nil {
		return nil, err
	}
	var recs []personRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	people := make([]family.Person, len(recs))
	for i, r := range recs {
		people[i] = r.person()
	}
	return people, nil
}

var _ Source = (*MongoSource)(nil)
