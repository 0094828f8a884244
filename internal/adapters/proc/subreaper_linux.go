package proc

import (
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
)

// BecomeSubreaper makes orphaned descendants reparent to this process instead of PID 1.
func (t *Table) BecomeSubreaper() error {
	if err := unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0); err != nil {
		return zerr.Wrap(err, domain.ErrSubreaperFailed.Error())
	}
	return nil
}
