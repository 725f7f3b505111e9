package storage

import (
	"log"
	"sync"
	"time"
)

const maxCaptions = 50

type MemoryStorage struct {
	captions map[int64][]Caption
	mutex    sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		captions: make(map[int64][]Caption),
	}
}

func (m *MemoryStorage) GetUserCaptions(userId int64, limit int) ([]Caption, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stored := m.captions[userId]
	if limit <= 0 || limit > len(stored) {
		limit = len(stored)
	}

	// stored is oldest first, result is newest first
	result := make([]Caption, 0, limit)
	for i := len(stored) - 1; i >= len(stored)-limit; i-- {
		result = append(result, stored[i])
	}
	return result, nil
}

func (m *MemoryStorage) SaveCaption(caption Caption) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if caption.CreatedAt.IsZero() {
		caption.CreatedAt = time.Now()
	}

	stored := append(m.captions[caption.UserId], caption)

	// Remove old captions if over history limit
	for len(stored) > maxCaptions {
		log.Printf("MemoryStorage: removing caption from history of user %d", caption.UserId)
		stored = stored[1:]
	}

	m.captions[caption.UserId] = stored
	return nil
}

func (m *MemoryStorage) ClearUserCaptions(userId int64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.captions, userId)
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
