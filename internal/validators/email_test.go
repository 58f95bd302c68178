package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Malformed addresses must be rejected before any DNS lookup happens.
func TestIsEmailDomainValid_MalformedAddresses(t *testing.T) {
	for _, email := range []string{
		"",
		"no-at-sign",
		"@missing-local.example",
		"trailing-at@",
		"   ",
	} {
		assert.False(t, IsEmailDomainValid(email), "email %q", email)
	}
}

func TestEmailDomain(t *testing.T) {
	host, ok := emailDomain("Anna.Berg@Example.COM")
	assert.True(t, ok)
	assert.Equal(t, "example.com", host)

	host, ok = emailDomain("quoted\"a@b\"@example.org")
	assert.True(t, ok)
	assert.Equal(t, "example.org", host)

	_, ok = emailDomain("@example.org")
	assert.False(t, ok)
}
