package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	apperrors "memorycore/pkg/errors"
)

// Role identifies who produced a ChatEvent.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ChatEvent is append-only and immutable once written. Uniqueness is on
// (SessionID, ContentHash), which makes AppendChatEvent idempotent.
type ChatEvent struct {
	ID          int64
	SessionID   string
	UserID      string
	Role        Role
	Content     string
	ContentHash string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// NewChatEvent validates and constructs a ChatEvent with its content hash
// populated. CreatedAt and ID are assigned by the Store.
func NewChatEvent(sessionID, userID string, role Role, content string, metadata map[string]any) (ChatEvent, error) {
	if sessionID == "" {
		return ChatEvent{}, apperrors.NewValidation("chat event: session id required")
	}
	if !role.Valid() {
		return ChatEvent{}, apperrors.NewValidation("chat event: invalid role " + string(role))
	}
	if content == "" {
		return ChatEvent{}, apperrors.NewValidation("chat event: content required")
	}
	return ChatEvent{
		SessionID:   sessionID,
		UserID:      userID,
		Role:        role,
		Content:     content,
		ContentHash: HashContent(content),
		Metadata:    metadata,
	}, nil
}

// HashContent returns the stable content hash used for idempotent reingest.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
