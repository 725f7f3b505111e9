package storage

import "time"

// StylePreferences stores a user's preferred description style,
// inferred from their caption history
type StylePreferences struct {
	UserId         int64     `bson:"user_id"`
	Language       string    `bson:"language"` // e.g., "English", "Ukrainian", "Spanish"
	Tone           string    `bson:"tone"`     // "formal", "poetic", "neutral"
	Detail         string    `bson:"detail"`   // "brief", "balanced", "rich"
	LastAnalysisAt time.Time `bson:"last_analysis_at"`
	LastCaptionAt  time.Time `bson:"last_caption_at"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

// StyleAnalysis is used for parsing AI analysis response
type StyleAnalysis struct {
	Language string `json:"language"`
	Tone     string `json:"tone"`
	Detail   string `json:"detail"`
}

// PreferencesStorage defines the interface for style preferences persistence
type PreferencesStorage interface {
	// GetStyle retrieves preferences for a user (returns nil if none exist)
	GetStyle(userId int64) (*StylePreferences, error)
	// SaveStyle creates or updates user preferences
	SaveStyle(prefs *StylePreferences) error
	// UpdateLastCaptionTime updates the LastCaptionAt timestamp when a caption is generated
	UpdateLastCaptionTime(userId int64) error
	// GetUsersNeedingAnalysis returns user IDs where LastCaptionAt > LastAnalysisAt
	// AND time.Since(LastAnalysisAt) > cutoffDuration
	GetUsersNeedingAnalysis(cutoffDuration time.Duration) ([]int64, error)
	// Close closes the storage connection
	Close() error
}
