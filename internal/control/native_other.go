//go:build !unix

package control

import (
	"context"
	"errors"

	"github.com/Dicklesworthstone/gunicorn_console/internal/model"
)

var errUnsupported = errors.New("native signals are not supported on this platform")

// Native is unavailable off unix.
type Native struct{}

func (Native) Check() error { return errUnsupported }

func (Native) Signal(context.Context, model.Signal, int) error { return errUnsupported }
