package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Generate_Resolve_Roundtrip(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("secret", time.Hour)

	identity := Identity{ID: "alice", Name: "Alice", Email: "alice@example.com", ImageURL: "http://img"}
	signed, err := tokens.Generate(identity)
	req.NoError(err)

	resolved, err := tokens.Resolve(signed)
	req.NoError(err)
	req.Equal(identity, resolved)
}

func Test_Resolve_Rejects_Wrong_Secret(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("secret", time.Hour)
	other := NewTokens("another", time.Hour)

	signed, err := tokens.Generate(Identity{ID: "alice"})
	req.NoError(err)

	_, err = other.Resolve(signed)
	req.Error(err)
}

func Test_Resolve_Rejects_Expired_Token(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("secret", -time.Minute)

	signed, err := tokens.Generate(Identity{ID: "alice"})
	req.NoError(err)

	_, err = tokens.Resolve(signed)
	req.Error(err)
}

func Test_Peek_Reads_Identity_Without_Secret(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("secret", time.Hour)

	signed, err := tokens.Generate(Identity{ID: "alice", Name: "Alice"})
	req.NoError(err)

	identity, err := Peek(signed)
	req.NoError(err)
	req.Equal("alice", identity.ID)
	req.Equal("Alice", identity.Name)
}
