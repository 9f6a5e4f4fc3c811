package redis

import (
	"errors"
	"strings"
)

const (
	// ChannelPrefix prefixes every per-user channel.
	ChannelPrefix = "realtime:user:"
	// ChannelPattern matches every per-user channel.
	ChannelPattern = ChannelPrefix + "*"

	revokedKeyPrefix = "realtime:revoked:"
)

var (
	ErrEmptyUserID    = errors.New("user id is empty")
	ErrEmptyTokenID   = errors.New("token id is empty")
	ErrInvalidChannel = errors.New("invalid channel format")
)

// UserChannel returns the channel events for userID are published on.
func UserChannel(userID string) string {
	return ChannelPrefix + userID
}

// userFromChannel extracts the user id from realtime:user:{user_id}.
func userFromChannel(channel string) (string, error) {
	userID, ok := strings.CutPrefix(channel, ChannelPrefix)
	if !ok || userID == "" {
		return "", ErrInvalidChannel
	}
	return userID, nil
}
