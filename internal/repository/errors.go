package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrInsufficientCredits is a normal outcome of TryDebit, not a fault.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrNotConversationOwner is returned when a requester acts on a
	// conversation they do not own.
	ErrNotConversationOwner = errors.New("not conversation owner")
	// ErrConversationGone means the conversation was deleted or reset while
	// an append was in flight; the append is discarded.
	ErrConversationGone = errors.New("conversation deleted or reset")
)

// IsDuplicateKey reports whether err is a unique-constraint violation.
// Gorm translates some driver errors; the string checks cover MySQL and
// SQLite drivers that slip through untranslated.
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
