package domain_test

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/slim/internal/core/domain"
)

func TestIsForwarded_Linux(t *testing.T) {
	assert.True(t, domain.IsForwarded(syscall.SIGPWR))
	assert.True(t, domain.IsForwarded(syscall.SIGSTKFLT))
}
