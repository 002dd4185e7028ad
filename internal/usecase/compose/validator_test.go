package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		Styles:       []string{"formal", "friendly", "persuasive", "apologetic"},
		Lengths:      []string{"short", "medium", "long"},
		Creativities: []string{"low", "medium", "high"},
		Languages:    []string{"English", "German", "Bosnian"},
	}
}

func validFields() RawFields {
	return RawFields{
		SenderName:     "John Smith",
		RecipientName:  "Ana Horvat",
		Style:          "formal",
		Length:         "short",
		Creativity:     "medium",
		Language:       "English",
		RecipientEmail: "ana@example.com",
		SenderEmail:    "john@example.com",
		Subject:        "Quarterly report",
		Instruction:    "Ask Ana to review the attached report by Friday.",
	}
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(testOptions())

	t.Run("accepts a fully valid request", func(t *testing.T) {
		req, err := v.Validate(validFields())
		require.Nil(t, err)
		assert.Equal(t, "John Smith", req.SenderName)
		assert.Equal(t, "English", req.Language)
	})

	t.Run("requires a sender name", func(t *testing.T) {
		fields := validFields()
		fields.SenderName = "   "
		_, err := v.Validate(fields)
		require.NotNil(t, err)
		assert.Contains(t, err.Messages, "sender name is mandatory")
	})

	t.Run("rejects short names", func(t *testing.T) {
		fields := validFields()
		fields.SenderName = "Jo"
		_, err := v.Validate(fields)
		require.NotNil(t, err)
		assert.Contains(t, err.Messages, "sender name must be at least 3 characters")
	})

	t.Run("rejects names without letters", func(t *testing.T) {
		fields := validFields()
		fields.SenderName = "12345"
		_, err := v.Validate(fields)
		require.NotNil(t, err)
		assert.Contains(t, err.Messages, "invalid sender name")
	})

	t.Run("validates every comma separated recipient name", func(t *testing.T) {
		fields := validFields()
		fields.RecipientName = "Ana, 99, Ivan"
		_, err := v.Validate(fields)
		require.NotNil(t, err)
		assert.Contains(t, err.Messages, "invalid recipient name")
	})

	t.Run("skips empty recipient segments", func(t *testing.T) {
		fields := validFields()
		fields.RecipientName = "John, , Ana"
		req, err := v.Validate(fields)
		require.Nil(t, err)
		assert.Equal(t, "John, Ana", req.RecipientName)
	})

	t.Run("all blank recipient segments collapse to empty", func(t *testing.T) {
		fields := validFields()
		fields.RecipientName = " ,  , "
		req, err := v.Validate(fields)
		require.Nil(t, err)
		assert.Equal(t, "", req.RecipientName)
	})

	t.Run("rejects options outside the configured sets", func(t *testing.T) {
		fields := validFields()
		fields.Style = "sarcastic"
		fields.Length = "epic"
		fields.Creativity = "extreme"
		fields.Language = "Klingon"
		_, err := v.Validate(fields)
		require.NotNil(t, err)
		assert.Contains(t, err.Messages, "invalid style")
		assert.Contains(t, err.Messages, "invalid length")
		assert.Contains(t, err.Messages, "invalid creativity")
		assert.Contains(t, err.Messages, "invalid language")
	})

	t.Run("capitalizes the language before matching", func(t *testing.T) {
		fields := validFields()
		fields.Language = "english"
		req, err := v.Validate(fields)
		require.Nil(t, err)
		assert.Equal(t, "English", req.Language)
	})

	t.Run("validates every recipient email", func(t *testing.T) {
		fields := validFields()
		fields.RecipientEmail = "ana@example.com, not-an-email"
		_, err := v.Validate(fields)
		require.NotNil(t, err)
		assert.Contains(t, err.Messages, "invalid recipient email address")
	})

	t.Run("sender email is optional but must parse when present", func(t *testing.T) {
		fields := validFields()
		fields.SenderEmail = ""
		_, err := v.Validate(fields)
		require.Nil(t, err)

		fields.SenderEmail = "broken@"
		_, err = v.Validate(fields)
		require.NotNil(t, err)
		assert.Contains(t, err.Messages, "invalid sender email address")
	})

	t.Run("subject must contain letters when present", func(t *testing.T) {
		fields := validFields()
		fields.Subject = "!!! 123"
		_, err := v.Validate(fields)
		require.NotNil(t, err)
		assert.Contains(t, err.Messages, "subject must contain letters")
	})

	t.Run("instruction may be empty only for a fix", func(t *testing.T) {
		fields := validFields()
		fields.Instruction = ""
		_, err := v.Validate(fields)
		require.NotNil(t, err)
		assert.Contains(t, err.Messages, "instruction is required")

		fields.FixText = "change the greeting"
		fields.PreviousGeneratedEmail = "Dear Ana, ..."
		_, err = v.Validate(fields)
		require.Nil(t, err)
	})

	t.Run("accumulates errors across fields", func(t *testing.T) {
		fields := validFields()
		fields.SenderName = ""
		fields.Style = "wrong"
		fields.RecipientEmail = "oops"
		_, err := v.Validate(fields)
		require.NotNil(t, err)
		assert.GreaterOrEqual(t, len(err.Messages), 3)
	})
}
