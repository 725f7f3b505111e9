package storage

import "time"

type Caption struct {
	UserId      int64     `bson:"user_id"`
	Source      string    `bson:"source"`
	MimeType    string    `bson:"mime_type"`
	Size        int       `bson:"size"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	CreatedAt   time.Time `bson:"created_at"`
}

type CaptionStorage interface {
	// GetUserCaptions returns the user's captions, newest first.
	// A limit of 0 or less means no limit.
	GetUserCaptions(userId int64, limit int) ([]Caption, error)
	SaveCaption(caption Caption) error
	ClearUserCaptions(userId int64) error
	Close() error
}
