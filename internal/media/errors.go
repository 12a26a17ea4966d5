package media

import (
	"errors"
	"fmt"

	"github.com/oyt/backend/internal/access"
)

var (
	// ErrUnsupportedType indicates the declared content type is not on the allow-list.
	ErrUnsupportedType = fmt.Errorf("%w: unsupported video format", access.ErrInvalidInput)
	// ErrQueueFull indicates the thumbnail queue has no free slot.
	ErrQueueFull = errors.New("thumbnail queue full")
	// ErrQueueClosed indicates the thumbnail queue has been shut down.
	ErrQueueClosed = errors.New("thumbnail queue closed")
)
