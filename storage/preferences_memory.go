package storage

import (
	"sync"
	"time"
)

// MemoryPreferencesStorage is an in-memory implementation of PreferencesStorage
type MemoryPreferencesStorage struct {
	preferences map[int64]*StylePreferences
	mutex       sync.RWMutex
}

// NewMemoryPreferencesStorage creates a new in-memory preferences storage
func NewMemoryPreferencesStorage() *MemoryPreferencesStorage {
	return &MemoryPreferencesStorage{
		preferences: make(map[int64]*StylePreferences),
	}
}

// GetStyle retrieves preferences for a user
func (m *MemoryPreferencesStorage) GetStyle(userId int64) (*StylePreferences, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if prefs, ok := m.preferences[userId]; ok {
		// Return a copy to prevent external mutation
		cc := *prefs
		return &cc, nil
	}
	return nil, nil
}

// SaveStyle creates or updates user preferences
func (m *MemoryPreferencesStorage) SaveStyle(prefs *StylePreferences) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	prefs.UpdatedAt = now

	if existing, ok := m.preferences[prefs.UserId]; ok {
		prefs.CreatedAt = existing.CreatedAt
		// Preserve LastCaptionAt if not set in new prefs
		if prefs.LastCaptionAt.IsZero() {
			prefs.LastCaptionAt = existing.LastCaptionAt
		}
	} else {
		prefs.CreatedAt = now
	}

	// Store a copy
	cc := *prefs
	m.preferences[prefs.UserId] = &cc
	return nil
}

// UpdateLastCaptionTime updates the LastCaptionAt timestamp
func (m *MemoryPreferencesStorage) UpdateLastCaptionTime(userId int64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	if prefs, ok := m.preferences[userId]; ok {
		prefs.LastCaptionAt = now
		prefs.UpdatedAt = now
	} else {
		m.preferences[userId] = &StylePreferences{
			UserId:        userId,
			LastCaptionAt: now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
	return nil
}

// GetUsersNeedingAnalysis returns users who need style analysis
func (m *MemoryPreferencesStorage) GetUsersNeedingAnalysis(cutoffDuration time.Duration) ([]int64, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var users []int64
	cutoffTime := time.Now().Add(-cutoffDuration)

	for userId, prefs := range m.preferences {
		// User has captions after last analysis AND last analysis is older than cutoff
		hasNewCaptions := prefs.LastCaptionAt.After(prefs.LastAnalysisAt)
		needsAnalysis := prefs.LastAnalysisAt.Before(cutoffTime) || prefs.LastAnalysisAt.IsZero()

		if hasNewCaptions && needsAnalysis {
			users = append(users, userId)
		}
	}
	return users, nil
}

// Close closes the storage (no-op for memory)
func (m *MemoryPreferencesStorage) Close() error {
	return nil
}
