package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTitle(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantTitle string
		wantOK    bool
		wantErr   bool
	}{
		{
			name:      "title present",
			content:   "---\ntitle: Hello World\ndate: 2024-05-01\n---\nBody",
			wantTitle: "Hello World",
			wantOK:    true,
		},
		{
			name:      "quoted title with colon",
			content:   "---\ntitle: \"Go: the good parts\"\n---\nBody",
			wantTitle: "Go: the good parts",
			wantOK:    true,
		},
		{
			name:      "numeric title kept as text",
			content:   "---\ntitle: 2024\n---\nBody",
			wantTitle: "2024",
			wantOK:    true,
		},
		{
			name:    "no front matter",
			content: "# Just a heading\n\nBody",
		},
		{
			name:    "front matter without title key",
			content: "---\ndate: 2024-05-01\ntags: [go]\n---\nBody",
		},
		{
			name:    "null title",
			content: "---\ntitle:\n---\nBody",
		},
		{
			name:      "empty title kept",
			content:   "---\ntitle: \"\"\n---\nBody",
			wantTitle: "",
			wantOK:    true,
		},
		{
			name:    "malformed yaml",
			content: "---\ntitle: [unclosed\n---\nBody",
			wantErr: true,
		},
		{
			name:    "title of wrong shape",
			content: "---\ntitle:\n  - a\n  - b\n---\nBody",
			wantErr: true,
		},
		{
			name:    "unterminated block",
			content: "---\ntitle: Never closed\nBody",
		},
		{
			name:    "block not at start",
			content: "\n---\ntitle: Late\n---\nBody",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, ok, err := ParseTitle(tt.content)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantTitle, title)
		})
	}
}
