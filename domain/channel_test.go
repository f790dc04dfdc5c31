package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"spill/errors"
)

func Test_DeriveChannel_Is_Commutative(t *testing.T) {
	req := require.New(t)
	req.Equal(DeriveChannel("alice", "bob"), DeriveChannel("bob", "alice"))
	req.Equal("chat-alice-bob", DeriveChannel("bob", "alice"))
}

func Test_DeriveChannel_Self_Conversation(t *testing.T) {
	req := require.New(t)
	req.Equal("chat-alice-alice", DeriveChannel("alice", "alice"))
}

func Test_ParseChannel_Roundtrip(t *testing.T) {
	req := require.New(t)
	a, b, err := ParseChannel(DeriveChannel("bob", "alice"))
	req.NoError(err)
	req.Equal("alice", a)
	req.Equal("bob", b)
}

func Test_ParseChannel_Rejects_Malformed_Names(t *testing.T) {
	req := require.New(t)
	for _, name := range []string{
		"",
		"chat-alice",
		"chat-alice-bob-extra",
		"room-alice-bob",
		"chat--bob",
		"chat-alice-",
	} {
		_, _, err := ParseChannel(name)
		req.ErrorIs(err, errors.ErrInvalidChannel, "name %q", name)
	}
}

func Test_ValidateUserID(t *testing.T) {
	req := require.New(t)
	req.NoError(ValidateUserID("user_2abc"))
	req.ErrorIs(ValidateUserID(""), errors.ErrInvalidRequest)
	req.ErrorIs(ValidateUserID("user-2abc"), errors.ErrHyphenIdentifier)
}
