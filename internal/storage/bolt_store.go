package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/domain"
)

const (
	gameBucket = "games"
	slugBucket = "slugs"

	externalIDKeyBytes = 8
)

// boltStore implements GameStore backed by BoltDB. Games are stored as JSON
// under their big-endian external id; a second bucket maps slug to owner id
// so slug uniqueness can be enforced inside the update transaction.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed GameStore.
func openBolt(path string) (GameStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(gameBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(slugBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// FindByExternalID returns the aggregate stored under the upstream id.
func (b *boltStore) FindByExternalID(externalID int64) (*domain.Game, error) {
	var game *domain.Game
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(gameBucket))
		if bucket == nil {
			return fmt.Errorf("game bucket missing")
		}
		value := bucket.Get(externalIDKey(externalID))
		if value == nil {
			return nil
		}
		decoded, err := decodeGame(value)
		if err != nil {
			return err
		}
		game = decoded
		return nil
	})
	return game, err
}

// FindBySlug resolves the slug index and loads the owning aggregate.
func (b *boltStore) FindBySlug(slug string) (*domain.Game, error) {
	if slug == "" {
		return nil, nil
	}
	var game *domain.Game
	err := b.db.View(func(tx *bolt.Tx) error {
		slugs := tx.Bucket([]byte(slugBucket))
		games := tx.Bucket([]byte(gameBucket))
		if slugs == nil || games == nil {
			return fmt.Errorf("store buckets missing")
		}
		owner := slugs.Get([]byte(slug))
		if owner == nil {
			return nil
		}
		value := games.Get(owner)
		if value == nil {
			// Dangling index entry; treat the slug as free.
			return nil
		}
		decoded, err := decodeGame(value)
		if err != nil {
			return err
		}
		game = decoded
		return nil
	})
	return game, err
}

// Upsert writes the aggregate and keeps the slug index consistent.
func (b *boltStore) Upsert(game *domain.Game) error {
	if game == nil {
		return fmt.Errorf("game must not be nil")
	}
	if game.ExternalID <= 0 {
		return fmt.Errorf("game external id must be positive")
	}
	if game.Slug == "" {
		return fmt.Errorf("game slug must not be empty")
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		games := tx.Bucket([]byte(gameBucket))
		slugs := tx.Bucket([]byte(slugBucket))
		if games == nil || slugs == nil {
			return fmt.Errorf("store buckets missing")
		}

		key := externalIDKey(game.ExternalID)

		if owner := slugs.Get([]byte(game.Slug)); owner != nil && !bytes.Equal(owner, key) {
			// The index may be stale if the owning row was purged.
			if games.Get(owner) != nil {
				return ErrSlugConflict
			}
		}

		// Drop the previous slug index entry when the slug changed.
		if prev := games.Get(key); prev != nil {
			prevGame, err := decodeGame(prev)
			if err != nil {
				return err
			}
			if prevGame.Slug != "" && prevGame.Slug != game.Slug {
				if err := slugs.Delete([]byte(prevGame.Slug)); err != nil {
					return err
				}
			}
		}

		encoded, err := json.Marshal(game)
		if err != nil {
			return fmt.Errorf("encode game: %w", err)
		}
		if err := games.Put(key, encoded); err != nil {
			return err
		}
		return slugs.Put([]byte(game.Slug), key)
	})
}

// Games returns all stored aggregates.
func (b *boltStore) Games() ([]*domain.Game, error) {
	var out []*domain.Game
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(gameBucket))
		if bucket == nil {
			return fmt.Errorf("game bucket missing")
		}
		return bucket.ForEach(func(_, value []byte) error {
			game, err := decodeGame(value)
			if err != nil {
				return err
			}
			out = append(out, game)
			return nil
		})
	})
	return out, err
}

// PurgeBelowVotes deletes aggregates with a missing or sub-threshold rating
// count. Owned media rows live inside the aggregate value, so the delete
// cascades by construction.
func (b *boltStore) PurgeBelowVotes(minVotes int64) (int, error) {
	removed := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		games := tx.Bucket([]byte(gameBucket))
		slugs := tx.Bucket([]byte(slugBucket))
		if games == nil || slugs == nil {
			return fmt.Errorf("store buckets missing")
		}

		cursor := games.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			game, err := decodeGame(v)
			if err != nil {
				return err
			}
			if game.TotalRatingCount != nil && *game.TotalRatingCount >= minVotes {
				continue
			}
			if err := cursor.Delete(); err != nil {
				return err
			}
			if game.Slug != "" {
				if err := slugs.Delete([]byte(game.Slug)); err != nil {
					return err
				}
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func externalIDKey(id int64) []byte {
	buf := make([]byte, externalIDKeyBytes)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

func decodeGame(value []byte) (*domain.Game, error) {
	var game domain.Game
	if err := json.Unmarshal(value, &game); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}
	return &game, nil
}
