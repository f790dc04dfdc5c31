package relay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"spill/errors"
)

func Test_Authorize_Grants_Both_Participants(t *testing.T) {
	req := require.New(t)
	authorizer := NewAuthorizer("app_key", "app_secret")

	for _, caller := range []string{"alice", "bob"} {
		grant, err := authorizer.Authorize(caller, "12345.67890", "chat-alice-bob")
		req.NoError(err)
		req.True(strings.HasPrefix(grant.Auth, "app_key:"))
		req.Contains(grant.ChannelData, fmt.Sprintf("%q", caller))
	}
}

func Test_Authorize_Signature_Covers_Socket_And_Channel(t *testing.T) {
	req := require.New(t)
	authorizer := NewAuthorizer("app_key", "app_secret")

	grant, err := authorizer.Authorize("alice", "12345.67890", "chat-alice-bob")
	req.NoError(err)

	mac := hmac.New(sha256.New, []byte("app_secret"))
	fmt.Fprintf(mac, "%s:%s:%s", "12345.67890", "chat-alice-bob", grant.ChannelData)
	req.Equal("app_key:"+hex.EncodeToString(mac.Sum(nil)), grant.Auth)

	// Another socket must yield a different signature.
	other, err := authorizer.Authorize("alice", "99999.00000", "chat-alice-bob")
	req.NoError(err)
	req.NotEqual(grant.Auth, other.Auth)
}

func Test_Authorize_Rejects_Outsider(t *testing.T) {
	req := require.New(t)
	authorizer := NewAuthorizer("app_key", "app_secret")

	_, err := authorizer.Authorize("mallory", "12345.67890", "chat-alice-bob")
	req.ErrorIs(err, errors.ErrNotParticipant)
}

func Test_Authorize_Rejects_Malformed_Channel_Before_Signing(t *testing.T) {
	req := require.New(t)
	authorizer := NewAuthorizer("app_key", "app_secret")

	_, err := authorizer.Authorize("alice", "12345.67890", "presence-global")
	req.ErrorIs(err, errors.ErrInvalidChannel)

	_, err = authorizer.Authorize("alice", "", "chat-alice-bob")
	req.ErrorIs(err, errors.ErrInvalidRequest)

	_, err = authorizer.Authorize("alice", "12345.67890", "")
	req.ErrorIs(err, errors.ErrInvalidRequest)
}
