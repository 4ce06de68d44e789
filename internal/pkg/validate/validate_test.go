package validate

import (
	"testing"

	"github.com/go-journal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirst_SubscribeMessages(t *testing.T) {
	err := First(domain.SubscribeRequest{Phone: "123", Name: "Ada"})
	require.Error(t, err)
	assert.Equal(t, "Phone number too short", err.Error())

	err = First(domain.SubscribeRequest{Phone: "+14155551234"})
	require.Error(t, err)
	assert.Equal(t, "Name is required", err.Error())

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	err = First(domain.SubscribeRequest{Phone: "+14155551234", Name: string(long)})
	require.Error(t, err)
	assert.Equal(t, "Name too long", err.Error())
}

func TestFirst_Valid(t *testing.T) {
	assert.NoError(t, First(domain.SubscribeRequest{Phone: "+14155551234", Name: "Ada"}))
}

func TestStruct_JoinsAllFailures(t *testing.T) {
	err := Struct(domain.NotifyRequest{URL: "not a url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postId is required")
	assert.Contains(t, err.Error(), "title is required")
	assert.Contains(t, err.Error(), "url must be a valid URL")
}

func TestStruct_FallbackMessage(t *testing.T) {
	type sample struct {
		Email string `validate:"email"`
	}
	err := Struct(sample{Email: "nope"})
	require.Error(t, err)
	assert.Equal(t, "field 'Email' failed 'email'", err.Error())
}
