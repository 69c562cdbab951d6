// Package session keeps the categorized transaction set for each
// uploaded statement in memory for the lifetime of the upload. Nothing
// here is persisted; a reset discards the session entirely.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spendlens/spendlens/internal/domain"
)

var (
	// ErrNotFound means no session exists for the given id.
	ErrNotFound = errors.New("session not found")

	// ErrTransactionNotFound means the session holds no transaction
	// with the given id.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Session is one upload's analyzed state.
type Session struct {
	ID           string
	Filename     string
	CreatedAt    time.Time
	Transactions []domain.CategorizedTransaction
	Degraded     bool
}

// Store is a thread-safe in-memory session registry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create registers a new session and returns it with a fresh id.
func (s *Store) Create(filename string, txs []domain.CategorizedTransaction, degraded bool) *Session {
	sess := &Session{
		ID:           uuid.New().String(),
		Filename:     filename,
		CreatedAt:    time.Now().UTC(),
		Transactions: txs,
		Degraded:     degraded,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns a snapshot of the session. The transaction slice is
// copied so callers cannot mutate stored state.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return snapshot(sess), nil
}

// Override reassigns the category of one transaction and marks it
// overridden. Overridden transactions are never touched again by
// automatic categorization. Returns the updated session snapshot.
func (s *Store) Override(sessionID, txID string, category domain.Category) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	for i := range sess.Transactions {
		if sess.Transactions[i].ID != txID {
			continue
		}
		sess.Transactions[i].Category = category
		sess.Transactions[i].Confidence = 1
		sess.Transactions[i].IsOverridden = true
		return snapshot(sess), nil
	}
	return nil, ErrTransactionNotFound
}

// Recategorize replaces categories from a fresh categorization pass,
// skipping transactions the user has overridden.
func (s *Store) Recategorize(sessionID string, fresh []domain.CategorizedTransaction) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	byID := make(map[string]domain.CategorizedTransaction, len(fresh))
	for _, tx := range fresh {
		byID[tx.ID] = tx
	}
	for i := range sess.Transactions {
		if sess.Transactions[i].IsOverridden {
			continue
		}
		if tx, ok := byID[sess.Transactions[i].ID]; ok {
			sess.Transactions[i].Category = tx.Category
			sess.Transactions[i].Confidence = tx.Confidence
		}
	}
	return snapshot(sess), nil
}

// Delete discards a session. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func snapshot(sess *Session) *Session {
	txs := make([]domain.CategorizedTransaction, len(sess.Transactions))
	copy(txs, sess.Transactions)
	out := *sess
	out.Transactions = txs
	return &out
}
