package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateListingTitle(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateListingTitle("Calculus textbook"))
	assert.NoError(t, ValidateListingTitle(strings.Repeat("a", 100)))
	assert.Error(t, ValidateListingTitle("abcd"))
	assert.Error(t, ValidateListingTitle(strings.Repeat("a", 101)))
	assert.Error(t, ValidateListingTitle("   ab   "), "whitespace does not count toward the minimum")
}

func TestValidateListingDescription(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateListingDescription(strings.Repeat("a", 20)))
	assert.NoError(t, ValidateListingDescription(strings.Repeat("a", 2000)))
	assert.Error(t, ValidateListingDescription("too short"))
	assert.Error(t, ValidateListingDescription(strings.Repeat("a", 2001)))
}

func TestValidateListingPrice(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateListingPrice(1))
	assert.NoError(t, ValidateListingPrice(50000))
	assert.NoError(t, ValidateListingPrice(149.90))
	assert.Error(t, ValidateListingPrice(0))
	assert.Error(t, ValidateListingPrice(0.99))
	assert.Error(t, ValidateListingPrice(50000.01))
	assert.Error(t, ValidateListingPrice(-5))
}

func TestValidateMessageContent(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateMessageContent("is this still available?"))
	assert.NoError(t, ValidateMessageContent(strings.Repeat("m", 2000)))
	assert.Error(t, ValidateMessageContent(""))
	assert.Error(t, ValidateMessageContent("   \n\t "))
	assert.Error(t, ValidateMessageContent(strings.Repeat("m", 2001)))
}
