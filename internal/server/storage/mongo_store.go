package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/palemoky/wolfpath/internal/model"
)

const (
	roomsCollection   = "rooms"
	playersCollection = "players"
)

type roomDoc struct {
	Code         string               `bson:"_id"`
	Salary       primitive.Decimal128 `bson:"salary"`
	WinningScore primitive.Decimal128 `bson:"winning_score"`
	BoardSize    int                  `bson:"board_size"`
	CreatedAt    time.Time            `bson:"created_at"`
}

type financialsDoc struct {
	Cash          primitive.Decimal128 `bson:"cash"`
	ToxicDebt     primitive.Decimal128 `bson:"toxic_debt"`
	PassiveIncome primitive.Decimal128 `bson:"passive_income"`
	NetWorth      primitive.Decimal128 `bson:"net_worth"`
}

type playerDoc struct {
	ID               string        `bson:"_id"`
	Nickname         string        `bson:"nickname"`
	RoomCode         string        `bson:"room_code"`
	Position         int           `bson:"position"`
	LapsCompleted    int           `bson:"laps_completed"`
	AwaitingDecision bool          `bson:"awaiting_decision"`
	Financials       financialsDoc `bson:"financials"`
	CreatedAt        time.Time     `bson:"created_at"`
}

// MongoStore keeps rooms and players in two collections with money stored as
// Decimal128.
type MongoStore struct {
	client  *mongo.Client
	rooms   *mongo.Collection
	players *mongo.Collection
}

// NewMongoStore connects, pings the primary and ensures indexes.
func NewMongoStore(ctx context.Context, uri, database string, timeout time.Duration) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(database)
	ms := &MongoStore{
		client:  client,
		rooms:   db.Collection(roomsCollection),
		players: db.Collection(playersCollection),
	}
	if err := ms.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return ms, nil
}

func (ms *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := ms.players.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "room_code", Value: 1}, {Key: "nickname", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "room_code", Value: 1}, {Key: "financials.net_worth", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create player indexes: %w", err)
	}
	return nil
}

func (ms *MongoStore) CreateRoom(ctx context.Context, room *model.Room) error {
	doc, err := roomToDoc(room)
	if err != nil {
		return err
	}
	_, err = ms.rooms.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrRoomExists
	}
	return err
}

func (ms *MongoStore) GetRoom(ctx context.Context, code string) (*model.Room, error) {
	var doc roomDoc
	err := ms.rooms.FindOne(ctx, bson.M{"_id": code}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return docToRoom(&doc)
}

func (ms *MongoStore) CreatePlayer(ctx context.Context, player *model.Player) error {
	n, err := ms.rooms.CountDocuments(ctx, bson.M{"_id": player.RoomCode}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoomNotFound
	}

	doc, err := playerToDoc(player)
	if err != nil {
		return err
	}
	_, err = ms.players.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrNicknameTaken
	}
	return err
}

func (ms *MongoStore) GetPlayer(ctx context.Context, id string) (*model.Player, error) {
	var doc playerDoc
	err := ms.players.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return docToPlayer(&doc)
}

func (ms *MongoStore) SavePlayer(ctx context.Context, player *model.Player) error {
	doc, err := playerToDoc(player)
	if err != nil {
		return err
	}
	_, err = ms.players.ReplaceOne(ctx, bson.M{"_id": player.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (ms *MongoStore) TopPlayers(ctx context.Context, roomCode string, limit int) ([]*model.Player, error) {
	if limit <= 0 {
		return []*model.Player{}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "financials.net_worth", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := ms.players.Find(ctx, bson.M{"room_code": roomCode}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []playerDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(docs))
	for i := range docs {
		p, err := docToPlayer(&docs[i])
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, nil
}

func (ms *MongoStore) DeleteRoom(ctx context.Context, code string) error {
	res, err := ms.rooms.DeleteOne(ctx, bson.M{"_id": code})
	if err != nil {
		return err
	}
	if _, err := ms.players.DeleteMany(ctx, bson.M{"room_code": code}); err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (ms *MongoStore) Ping(ctx context.Context) error {
	return ms.client.Ping(ctx, readpref.Primary())
}

func (ms *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return ms.client.Disconnect(ctx)
}

// --- document conversion ---

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert %s to decimal128: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse decimal128 %s: %w", v, err)
	}
	return d, nil
}

// decimalFields converts several values, stopping at the first error.
func decimalFields(in ...decimal.Decimal) ([]primitive.Decimal128, error) {
	out := make([]primitive.Decimal128, len(in))
	for i, d := range in {
		v, err := toDecimal128(d)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decimalsFrom(in ...primitive.Decimal128) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(in))
	for i, v := range in {
		d, err := fromDecimal128(v)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func roomToDoc(r *model.Room) (*roomDoc, error) {
	vals, err := decimalFields(r.Salary, r.WinningScore)
	if err != nil {
		return nil, err
	}
	return &roomDoc{
		Code:         r.Code,
		Salary:       vals[0],
		WinningScore: vals[1],
		BoardSize:    r.BoardSize,
		CreatedAt:    r.CreatedAt,
	}, nil
}

func docToRoom(d *roomDoc) (*model.Room, error) {
	vals, err := decimalsFrom(d.Salary, d.WinningScore)
	if err != nil {
		return nil, err
	}
	return &model.Room{
		Code:         d.Code,
		Salary:       vals[0],
		WinningScore: vals[1],
		BoardSize:    d.BoardSize,
		CreatedAt:    d.CreatedAt,
	}, nil
}

func playerToDoc(p *model.Player) (*playerDoc, error) {
	f := p.Financials
	vals, err := decimalFields(f.Cash, f.ToxicDebt, f.PassiveIncome, f.NetWorth)
	if err != nil {
		return nil, err
	}
	return &playerDoc{
		ID:               p.ID,
		Nickname:         p.Nickname,
		RoomCode:         p.RoomCode,
		Position:         p.Position,
		LapsCompleted:    p.LapsCompleted,
		AwaitingDecision: p.AwaitingDecision,
		Financials: financialsDoc{
			Cash:          vals[0],
			ToxicDebt:     vals[1],
			PassiveIncome: vals[2],
			NetWorth:      vals[3],
		},
		CreatedAt: p.CreatedAt,
	}, nil
}

func docToPlayer(d *playerDoc) (*model.Player, error) {
	f := d.Financials
	vals, err := decimalsFrom(f.Cash, f.ToxicDebt, f.PassiveIncome, f.NetWorth)
	if err != nil {
		return nil, err
	}
	return &model.Player{
		ID:               d.ID,
		Nickname:         d.Nickname,
		RoomCode:         d.RoomCode,
		Position:         d.Position,
		LapsCompleted:    d.LapsCompleted,
		AwaitingDecision: d.AwaitingDecision,
		Financials: model.FinancialState{
			Cash:          vals[0],
			ToxicDebt:     vals[1],
			PassiveIncome: vals[2],
			NetWorth:      vals[3],
		},
		CreatedAt: d.CreatedAt,
	}, nil
}
