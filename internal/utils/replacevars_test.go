package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceVars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		vars  map[string]string
		want  string
	}{
		{
			name:  "single var",
			input: "Added song: {title}",
			vars:  map[string]string{"title": "Houdini"},
			want:  "Added song: Houdini",
		},
		{
			name:  "multiple vars",
			input: "Added song: {title} {link}",
			vars:  map[string]string{"title": "Houdini", "link": "https://youtu.be/abc"},
			want:  "Added song: Houdini https://youtu.be/abc",
		},
		{
			name:  "missing var stays literal",
			input: "Added song: {title}",
			vars:  map[string]string{},
			want:  "Added song: {title}",
		},
		{
			name:  "repeated placeholder",
			input: "{x} and {x}",
			vars:  map[string]string{"x": "again"},
			want:  "again and again",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ReplaceVars(tc.input, tc.vars))
		})
	}
}
