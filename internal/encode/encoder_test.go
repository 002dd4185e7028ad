package encode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hercegdoo/aicompose/internal/encode"
)

func TestForTransport(t *testing.T) {
	t.Run("escapes markup characters", func(t *testing.T) {
		assert.Equal(t,
			"&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;",
			encode.ForTransport("<script>alert('x')</script>"))
	})

	t.Run("escapes quotes and ampersands", func(t *testing.T) {
		assert.Equal(t, "Tom &amp; &quot;Jerry&quot;", encode.ForTransport(`Tom & "Jerry"`))
	})

	t.Run("plain text unchanged", func(t *testing.T) {
		input := "Dear Ana,\n\nSee you next week.\n\nBest regards"
		assert.Equal(t, input, encode.ForTransport(input))
	})
}

func TestMessages(t *testing.T) {
	out := encode.Messages([]string{"sender name is mandatory", `bad <input>`})
	assert.Equal(t, "sender name is mandatory, bad &lt;input&gt;", out)
}
