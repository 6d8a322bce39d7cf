package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{"auto on terminal", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"empty is auto", "", false, ModeMarkdown},
		{"explicit json on terminal", ModeJSON, true, ModeJSON},
		{"explicit text piped", ModeText, false, ModeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, tt.isTTY, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestNewRenderer_BufferIsNotTerminal(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.False(t, r.Color())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAuto, "auto": ModeAuto, "TEXT": ModeText, "md": ModeMarkdown, "json": ModeJSON} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("html")
	assert.Error(t, err)
}

func TestPlainStylesLeaveTextUnchanged(t *testing.T) {
	r := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, false, ModeText)
	assert.Equal(t, "Passed", r.Styles().Success.Render("Passed"))
	assert.Equal(t, "title", r.Styles().Header1.Render("title"))
}

func TestRendererWrites(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeJSON)

	r.Println("hello")
	r.Printf("%d items\n", 3)
	r.Warnf("skipped %s", "x")
	require.NoError(t, r.JSON(map[string]int{"a": 1}))

	assert.Equal(t, "hello\n3 items\n{\n  \"a\": 1\n}\n", out.String())
	assert.Equal(t, "warning: skipped x\n", errOut.String())
}
