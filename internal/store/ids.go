package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// namespace for the name based ids below. Changing it changes every id.
var namespace = uuid.MustParse("6f1c3f0e-8b7a-4c52-9a36-2d0f6f3e9b41")

// GroupID is derived from the group name, case-insensitively, so the same
// chat exported twice lands in the same group.
func GroupID(name string) string {
	return uuid.NewSHA1(namespace, []byte("group:"+strings.ToLower(strings.TrimSpace(name)))).String()
}

// MessageID identifies a message by content so re-importing an export does
// not duplicate it. seq counts earlier messages in the same export with the
// same timestamp, author and text, so repeats like two "ok" replies in one
// minute stay distinct. seq 0 hashes the plain content key.
func MessageID(groupID string, ts time.Time, author, text string, seq int) string {
	key := fmt.Sprintf("message:%s|%d|%s|%s", groupID, ts.UnixMilli(), author, text)
	if seq > 0 {
		key += fmt.Sprintf("|%d", seq)
	}
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

func MilestoneID(groupID, title string) string {
	return uuid.NewSHA1(namespace, []byte("milestone:"+groupID+"|"+strings.ToLower(strings.TrimSpace(title)))).String()
}
