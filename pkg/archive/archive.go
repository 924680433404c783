// Package archive stores finished games in Redis.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/qnkhuat/chesslan/pkg/game"
	"github.com/qnkhuat/chesslan/pkg/notation"
)

var ErrNotFound = errors.New("game not found")

const keyPrefix = "chesslan:"

// Record is one archived game.
type Record struct {
	ID     string    `json:"id"`
	White  string    `json:"white"`
	Black  string    `json:"black"`
	Result string    `json:"result"`
	State  string    `json:"state"`
	Moves  []string  `json:"moves"`
	FEN    string    `json:"fen"`
	PGN    string    `json:"pgn"`
	Ended  time.Time `json:"ended"`
}

// NewRecord snapshots b. The PGN is left empty when the history cannot be
// replayed from the standard start, as with games set up from a FEN.
func NewRecord(b *game.Board, white, black string, ended time.Time) Record {
	r := Record{
		ID:     uuid.NewString(),
		White:  white,
		Black:  black,
		Result: b.Result(),
		State:  b.State().String(),
		FEN:    notation.FEN(b),
		Ended:  ended.UTC(),
	}
	for _, m := range b.History() {
		r.Moves = append(r.Moves, m.String())
	}
	if pgn, err := notation.PGN(b,
		notation.Tag{Key: "White", Value: white},
		notation.Tag{Key: "Black", Value: black},
		notation.Tag{Key: "Date", Value: r.Ended.Format("2006.01.02")},
	); err == nil {
		r.PGN = pgn
	}
	return r
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore wraps an existing client. A ttl of zero keeps records forever.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Open connects to the server at url (redis://host:port/db) and pings it.
func Open(ctx context.Context, url string, ttl time.Duration) (*Store, error) {
	opt, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewStore(rdb, ttl), nil
}

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) keyGame(id string) string { return keyPrefix + "game:" + id }
func (s *Store) keyIndex() string         { return keyPrefix + "games" }

func (s *Store) Save(ctx context.Context, r Record) error {
	if r.ID == "" {
		return fmt.Errorf("save game: empty id")
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.keyGame(r.ID), raw, s.ttl)
		p.ZAdd(ctx, s.keyIndex(), redis.Z{Score: float64(r.Ended.UnixNano()), Member: r.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("save game %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) (Record, error) {
	raw, err := s.rdb.Get(ctx, s.keyGame(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("load game %s: %w", id, err)
	}
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Record{}, fmt.Errorf("decode game %s: %w", id, err)
	}
	return r, nil
}

// Recent returns up to n records, newest first. Index entries whose record
// has expired are dropped from the index.
func (s *Store) Recent(ctx context.Context, n int) ([]Record, error) {
	if n <= 0 {
		return nil, nil
	}
	ids, err := s.rdb.ZRevRange(ctx, s.keyIndex(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		r, err := s.Load(ctx, id)
		if errors.Is(err, ErrNotFound) {
			s.rdb.ZRem(ctx, s.keyIndex(), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
