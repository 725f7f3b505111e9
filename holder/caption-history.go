package holder

import (
	"Curator/storage"
	"log"
)

// Caption is an alias for storage.Caption for backward compatibility
type Caption = storage.Caption

type HistoryManager struct {
	storage storage.CaptionStorage
}

func NewHistoryManager(store storage.CaptionStorage) *HistoryManager {
	return &HistoryManager{
		storage: store,
	}
}

func (hm *HistoryManager) Recent(userId int64, limit int) []Caption {
	captions, err := hm.storage.GetUserCaptions(userId, limit)
	if err != nil {
		log.Printf("error getting caption history: %v", err)
		return nil
	}
	return captions
}

func (hm *HistoryManager) Add(caption Caption) {
	if err := hm.storage.SaveCaption(caption); err != nil {
		log.Printf("error saving caption: %v", err)
	}
}

func (hm *HistoryManager) Clear(userId int64) {
	if err := hm.storage.ClearUserCaptions(userId); err != nil {
		log.Printf("error clearing caption history: %v", err)
	}
}

func (hm *HistoryManager) Close() error {
	return hm.storage.Close()
}
