package domain

import (
	"fmt"
	"sort"
	"strings"

	"spill/errors"
)

const channelPrefix = "chat"

// DeriveChannel maps an unordered pair of user identifiers to the relay
// topic carrying their conversation. It is commutative: both participants
// derive the same name regardless of argument order, and every producer
// and consumer must reproduce it byte for byte.
//
// A self-conversation (a == b) is allowed and yields a valid channel.
func DeriveChannel(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return fmt.Sprintf("%s-%s-%s", channelPrefix, pair[0], pair[1])
}

// ParseChannel splits a channel name back into its two participants.
// Only the exact shape "chat-{idA}-{idB}" is accepted. Identifiers are
// required to be hyphen-free (enforced at the API boundary), so any name
// that does not split into exactly three segments is rejected.
func ParseChannel(name string) (string, string, error) {
	parts := strings.Split(name, "-")
	if len(parts) != 3 || parts[0] != channelPrefix {
		return "", "", fmt.Errorf("%w: %q", errors.ErrInvalidChannel, name)
	}
	if parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("%w: %q", errors.ErrInvalidChannel, name)
	}
	return parts[1], parts[2], nil
}

// ValidateUserID rejects identifiers that would corrupt the channel naming
// scheme. The identity provider issues hyphen-free opaque ids; anything
// else cannot be encoded into a parseable channel name.
func ValidateUserID(id string) error {
	if id == "" {
		return errors.ErrInvalidRequest
	}
	if strings.ContainsRune(id, '-') {
		return fmt.Errorf("%w: %q", errors.ErrHyphenIdentifier, id)
	}
	return nil
}
