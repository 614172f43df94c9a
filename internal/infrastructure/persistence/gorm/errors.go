package gorm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nutriplan/engine/internal/ports/outbound"
	"gorm.io/gorm"
)

// translate maps driver errors onto the outbound sentinels
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return outbound.ErrNotFound
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", outbound.ErrDuplicate, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
