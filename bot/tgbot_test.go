package bot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatReply(t *testing.T) {
	reply := formatReply("**Golden Hour**\nA warm gradient...")
	require.Equal(t, "Golden Hour\n\nA warm gradient...", reply)
}

func TestFormatReply_NoTitle(t *testing.T) {
	reply := formatReply("A description without a title.")
	require.Equal(t, "A description without a title.", reply)
}
