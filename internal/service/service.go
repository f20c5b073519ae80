package service

import (
	"errors"

	"github.com/sakif/expense-tracker/internal/apperror"
)

// isNotFound reports whether err is (or wraps) the NotFound sentinel.
// Repository lookups return it for absent rows AND for rows owned by another
// user — the services treat both identically on purpose.
func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
