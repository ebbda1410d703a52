package service

import (
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"

	"github.com/mmynk/expensebook/internal/calculator"
	"github.com/mmynk/expensebook/internal/storage"
)

func TestToConnectError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want connect.Code
	}{
		{"validation", fmt.Errorf("bad split: %w", calculator.ErrValidation), connect.CodeInvalidArgument},
		{"missing record", fmt.Errorf("expense x: %w", storage.ErrNotFound), connect.CodeNotFound},
		{"settled concurrently", fmt.Errorf("expense x: %w", storage.ErrSettled), connect.CodeFailedPrecondition},
		{"already settled", errAlreadySettled, connect.CodeFailedPrecondition},
		{"outsider", errNotInvolved, connect.CodePermissionDenied},
		{"existing code kept", connect.NewError(connect.CodeUnauthenticated, errors.New("no token")), connect.CodeUnauthenticated},
		{"unknown", errors.New("disk on fire"), connect.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toConnectError(tt.err).Code())
		})
	}
}
