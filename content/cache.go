package content

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"gopkg.in/yaml.v3"
)

const bucketIndex = "index"

// Cache persists the indexes of content directories between runs.
// Entries are keyed by the absolute path of the directory.
type Cache struct {
	db *bolt.DB
}

// indexRecord is the cached form of an index.
type indexRecord struct {
	BuiltAt time.Time `yaml:"builtAt"`
	Entries []entry   `yaml:"entries"`
}

// OpenCache opens, creating it if needed, the cache database at path.
func OpenCache(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening index cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketIndex))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing index cache: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// load returns the cached index of dir, or nil if there is none.
func (c *Cache) load(dir string) (*indexRecord, error) {
	var data []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketIndex)).Get([]byte(dir)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, err
	}

	rec := &indexRecord{}
	if err := yaml.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decoding cached index of %s: %w", dir, err)
	}
	return rec, nil
}

func (c *Cache) store(dir string, rec *indexRecord) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return err
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketIndex)).Put([]byte(dir), data)
	})
}

// Invalidate drops the cached index of dir.
func (c *Cache) Invalidate(dir string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketIndex)).Delete([]byte(dir))
	})
}
