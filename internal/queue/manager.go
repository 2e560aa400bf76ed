package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/corvid-labs/lectern/internal/common"
	"github.com/corvid-labs/lectern/internal/models"
)

// ErrNoMessage is returned when the queue is empty
var ErrNoMessage = models.ErrNoMessage

// Message is an alias for models.QueueMessage within the queue package.
type Message = models.QueueMessage

// envelope wraps a message with queue bookkeeping as stored in Badger.
type envelope struct {
	ID           string    `json:"id"`
	Body         Message   `json:"body"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
	VisibleAt    time.Time `json:"visible_at"`
	ReceiveCount int       `json:"receive_count"`
}

// Config holds parsed queue settings.
type Config struct {
	QueueName         string
	PollInterval      time.Duration
	VisibilityTimeout time.Duration
	Concurrency       int
}

// ConfigFromCommon converts the application queue config into parsed form.
func ConfigFromCommon(qc *common.QueueConfig) Config {
	return Config{
		QueueName:         qc.QueueName,
		PollInterval:      common.Duration(qc.PollInterval, time.Second),
		VisibilityTimeout: common.Duration(qc.VisibilityTimeout, 5*time.Minute),
		Concurrency:       qc.Concurrency,
	}
}

// Manager implements a persistent queue on BadgerDB. Messages survive a
// restart; a received message becomes invisible for the visibility timeout
// and reappears if the worker dies before acking it.
type Manager struct {
	db     *badger.DB
	config Config
}

// NewManager creates a new Badger-backed queue manager
func NewManager(db *badger.DB, config Config) (*Manager, error) {
	if db == nil {
		return nil, errors.New("badger db is required")
	}
	if config.QueueName == "" {
		return nil, errors.New("queue name is required")
	}
	if config.VisibilityTimeout <= 0 {
		config.VisibilityTimeout = 5 * time.Minute
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}

	return &Manager{db: db, config: config}, nil
}

// Config returns the parsed queue configuration.
func (m *Manager) Config() Config {
	return m.config
}

// Enqueue adds a message to the queue, immediately visible.
func (m *Manager) Enqueue(ctx context.Context, msg Message) error {
	if msg.ID == "" {
		msg.ID = common.NewMessageID()
	}

	env := envelope{
		ID:         msg.ID,
		Body:       msg,
		EnqueuedAt: time.Now(),
		VisibleAt:  time.Now(),
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal queue message: %w", err)
	}

	// Message data lives at queue:{name}:msg:{id}; a visibility index at
	// queue:{name}:index:{visibleAt}:{id} gives ordered ready-message scans.
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(m.msgKey(env.ID), data); err != nil {
			return err
		}
		return txn.Set(m.indexKey(env.VisibleAt, env.ID), []byte{})
	})
}

// Receive pulls the next visible message from the queue. The returned ack
// function removes the message permanently; an unacked message reappears
// after the visibility timeout.
func (m *Manager) Receive(ctx context.Context) (*Message, func() error, error) {
	var env envelope
	var msgID string
	var oldIndexKey []byte

	err := m.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(fmt.Sprintf("queue:%s:index:", m.config.QueueName))
		it := txn.NewIterator(opts)
		defer it.Close()

		now := time.Now()
		found := false

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)

			ts, id, err := m.parseIndexKey(key)
			if err != nil {
				continue // Skip invalid keys
			}

			if ts.After(now) {
				// Keys are sorted by timestamp; nothing later is ready either.
				break
			}

			item, err := txn.Get(m.msgKey(id))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					// Dangling index entry, clean it up.
					if err := txn.Delete(key); err != nil {
						return err
					}
					continue
				}
				return err
			}

			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			}); err != nil {
				return err
			}

			found = true
			msgID = id
			oldIndexKey = key
			break
		}

		if !found {
			return ErrNoMessage
		}

		env.ReceiveCount++
		env.VisibleAt = time.Now().Add(m.config.VisibilityTimeout)

		newData, err := json.Marshal(env)
		if err != nil {
			return err
		}
		if err := txn.Set(m.msgKey(msgID), newData); err != nil {
			return err
		}
		if err := txn.Delete(oldIndexKey); err != nil {
			return err
		}
		return txn.Set(m.indexKey(env.VisibleAt, msgID), []byte{})
	})
	if err != nil {
		return nil, nil, err
	}

	ack := func() error {
		return m.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(m.msgKey(msgID))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					return nil // Already deleted
				}
				return err
			}

			var current envelope
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &current)
			}); err != nil {
				return err
			}

			if err := txn.Delete(m.indexKey(current.VisibleAt, msgID)); err != nil && err != badger.ErrKeyNotFound {
				return err
			}
			return txn.Delete(m.msgKey(msgID))
		})
	}

	return &env.Body, ack, nil
}

// Depth returns the number of messages currently in the queue, visible or not.
func (m *Manager) Depth(ctx context.Context) (int, error) {
	count := 0
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(fmt.Sprintf("queue:%s:msg:", m.config.QueueName))
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Contains reports whether a message for the given document is already
// queued. Used by the pending sweep to avoid double-enqueueing.
func (m *Manager) Contains(ctx context.Context, documentID string) (bool, error) {
	found := false
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte(fmt.Sprintf("queue:%s:msg:", m.config.QueueName))
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var env envelope
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			}); err != nil {
				continue
			}
			var payload models.IngestionPayload
			if err := json.Unmarshal(env.Body.Payload, &payload); err != nil {
				continue
			}
			if payload.DocumentID == documentID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

// Close closes the queue manager (no-op, the DB is managed externally)
func (m *Manager) Close() error {
	return nil
}

func (m *Manager) msgKey(id string) []byte {
	return []byte(fmt.Sprintf("queue:%s:msg:%s", m.config.QueueName, id))
}

func (m *Manager) indexKey(visibleAt time.Time, id string) []byte {
	// Zero pad to 20 digits so string sorting matches numeric sorting
	return []byte(fmt.Sprintf("queue:%s:index:%020d:%s", m.config.QueueName, visibleAt.UnixNano(), id))
}

func (m *Manager) parseIndexKey(key []byte) (time.Time, string, error) {
	parts := strings.Split(string(key), ":")
	if len(parts) != 5 {
		return time.Time{}, "", fmt.Errorf("malformed index key: %s", key)
	}
	ns, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("malformed index timestamp: %w", err)
	}
	return time.Unix(0, ns), parts[4], nil
}
