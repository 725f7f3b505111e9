package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractTitle(t *testing.T) {
	title, body, ok := ExtractTitle("**Golden Hour**\nA warm gradient...")
	require.True(t, ok)
	require.Equal(t, "Golden Hour", title)
	require.Equal(t, "A warm gradient...", body)
}

func TestExtractTitle_MidText(t *testing.T) {
	title, body, ok := ExtractTitle("Here is your title: **Silent Harbor**. Boats rest at dawn.")
	require.True(t, ok)
	require.Equal(t, "Silent Harbor", title)
	require.Equal(t, "Here is your title: . Boats rest at dawn.", body)
}

func TestExtractTitle_NoDelimiter(t *testing.T) {
	title, body, ok := ExtractTitle("A plain description without a title.")
	require.False(t, ok)
	require.Empty(t, title)
	require.Equal(t, "A plain description without a title.", body)
}

func TestExtractTitle_Unterminated(t *testing.T) {
	_, body, ok := ExtractTitle("**Golden Hour\nA warm gradient...")
	require.False(t, ok)
	require.Equal(t, "**Golden Hour\nA warm gradient...", body)
}

func TestExtractTitle_EmptyTitle(t *testing.T) {
	_, _, ok := ExtractTitle("**** nothing between")
	require.False(t, ok)
}
