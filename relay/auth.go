package relay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"spill/domain"
	"spill/errors"
)

// Authorizer gates channel subscriptions: only the two participants
// encoded in a channel name may obtain a signed authorization for it.
type Authorizer struct {
	key    string
	secret []byte
}

func NewAuthorizer(key, secret string) *Authorizer {
	return &Authorizer{key: key, secret: []byte(secret)}
}

// Authorization is the signed grant handed back to the relay handshake,
// scoped to one socket/channel pair and the caller's identity.
type Authorization struct {
	Auth        string `json:"auth"`
	ChannelData string `json:"channel_data"`
}

type channelData struct {
	UserID   string          `json:"user_id"`
	UserInfo channelUserInfo `json:"user_info"`
}

type channelUserInfo struct {
	Name string `json:"name"`
}

// Authorize validates the channel shape and the caller's membership before
// any signature is produced. The signature covers the socket id, the
// channel name and the caller identity, so a grant cannot be replayed for
// another channel or another connection.
func (a *Authorizer) Authorize(callerID, socketID, channelName string) (Authorization, error) {
	if socketID == "" || channelName == "" {
		return Authorization{}, errors.ErrInvalidRequest
	}

	idA, idB, err := domain.ParseChannel(channelName)
	if err != nil {
		return Authorization{}, err
	}
	if callerID != idA && callerID != idB {
		return Authorization{}, fmt.Errorf("%w: %s on %s", errors.ErrNotParticipant, callerID, channelName)
	}

	data, err := json.Marshal(channelData{
		UserID:   callerID,
		UserInfo: channelUserInfo{Name: callerID},
	})
	if err != nil {
		return Authorization{}, err
	}

	mac := hmac.New(sha256.New, a.secret)
	fmt.Fprintf(mac, "%s:%s:%s", socketID, channelName, data)
	signature := hex.EncodeToString(mac.Sum(nil))

	return Authorization{
		Auth:        a.key + ":" + signature,
		ChannelData: string(data),
	}, nil
}
