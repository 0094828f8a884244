//go:build !linux

package proc

import (
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/zerr"
)

// BecomeSubreaper is only supported on Linux.
func (t *Table) BecomeSubreaper() error {
	return zerr.With(domain.ErrSubreaperFailed, "reason", "unsupported platform")
}
