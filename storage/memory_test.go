package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_SaveAndGet(t *testing.T) {
	m := NewMemoryStorage()

	for i := 1; i <= 3; i++ {
		err := m.SaveCaption(Caption{
			UserId:      1,
			Source:      fmt.Sprintf("img%d.png", i),
			Title:       fmt.Sprintf("Title %d", i),
			Description: fmt.Sprintf("Description %d", i),
			CreatedAt:   time.Now().Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	captions, err := m.GetUserCaptions(1, 0)
	require.NoError(t, err)
	require.Len(t, captions, 3)
	// newest first
	require.Equal(t, "Title 3", captions[0].Title)
	require.Equal(t, "Title 1", captions[2].Title)
}

func TestMemoryStorage_Limit(t *testing.T) {
	m := NewMemoryStorage()

	for i := 1; i <= 5; i++ {
		require.NoError(t, m.SaveCaption(Caption{UserId: 1, Title: fmt.Sprintf("Title %d", i)}))
	}

	captions, err := m.GetUserCaptions(1, 2)
	require.NoError(t, err)
	require.Len(t, captions, 2)
	require.Equal(t, "Title 5", captions[0].Title)
	require.Equal(t, "Title 4", captions[1].Title)
}

func TestMemoryStorage_HistoryBound(t *testing.T) {
	m := NewMemoryStorage()

	for i := 0; i < maxCaptions+5; i++ {
		require.NoError(t, m.SaveCaption(Caption{UserId: 1, Title: fmt.Sprintf("Title %d", i)}))
	}

	captions, err := m.GetUserCaptions(1, 0)
	require.NoError(t, err)
	require.Len(t, captions, maxCaptions)
	// oldest entries are dropped
	require.Equal(t, fmt.Sprintf("Title %d", maxCaptions+4), captions[0].Title)
}

func TestMemoryStorage_Clear(t *testing.T) {
	m := NewMemoryStorage()

	require.NoError(t, m.SaveCaption(Caption{UserId: 1, Title: "Title"}))
	require.NoError(t, m.ClearUserCaptions(1))

	captions, err := m.GetUserCaptions(1, 0)
	require.NoError(t, err)
	require.Empty(t, captions)
}

func TestMemoryStorage_UsersIsolated(t *testing.T) {
	m := NewMemoryStorage()

	require.NoError(t, m.SaveCaption(Caption{UserId: 1, Title: "Mine"}))
	require.NoError(t, m.SaveCaption(Caption{UserId: 2, Title: "Yours"}))

	captions, err := m.GetUserCaptions(1, 0)
	require.NoError(t, err)
	require.Len(t, captions, 1)
	require.Equal(t, "Mine", captions[0].Title)
}
