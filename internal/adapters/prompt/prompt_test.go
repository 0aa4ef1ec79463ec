package prompt_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/spv/internal/adapters/prompt"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{name: "y consents", answer: "y\n", want: true},
		{name: "yes consents", answer: "yes\n", want: true},
		{name: "uppercase consents", answer: "YES\n", want: true},
		{name: "padded y consents", answer: "  y  \n", want: true},
		{name: "n declines", answer: "n\n", want: false},
		{name: "anything else declines", answer: "maybe\n", want: false},
		{name: "empty line declines", answer: "\n", want: false},
		{name: "eof declines", answer: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := prompt.NewWithStreams(strings.NewReader(tt.answer), &out)

			got, err := p.Confirm("Install Rust nightly-2024-04-24 with `rustup`")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "[y/n]")
		})
	}
}
