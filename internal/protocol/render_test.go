package protocol_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/srg/chemion/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_Render(t *testing.T) {
	frame := protocol.Frame{
		{0, 1, 2, 3},
		{3, 9},
	}

	t.Run("plain glyphs", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, frame.Render(&buf, false))
		assert.Equal(t, "·░▒█\n█?\n", buf.String())
	})

	t.Run("colorized output keeps glyphs", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, frame.Render(&buf, true))

		out := buf.String()
		assert.Contains(t, out, "\x1b[")
		assert.Equal(t, 2, strings.Count(out, "\n"))
		assert.Equal(t, 2, strings.Count(out, "█"))
	})
}
