package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/expensebook/internal/auth"
	"github.com/mmynk/expensebook/internal/calculator"
	"github.com/mmynk/expensebook/internal/middleware"
	"github.com/mmynk/expensebook/internal/storage"
)

var (
	errNotGroupMember  = errors.New("not a member of this group")
	errNotInvolved     = errors.New("not a participant or contributor of this expense")
	errAlreadySettled  = errors.New("expense is already settled")
	errNothingToSettle = errors.New("nothing to settle")
	errOnlyCreator     = errors.New("only the group creator can delete the group")
)

// toConnectError maps domain and storage errors onto Connect codes.
// Errors that already carry a code pass through unchanged.
func toConnectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	switch {
	case errors.Is(err, calculator.ErrValidation), errors.Is(err, calculator.ErrReconciliation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, calculator.ErrInvariant):
		return connect.NewError(connect.CodeInternal, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, errNotGroupMember), errors.Is(err, errNotInvolved):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, errAlreadySettled), errors.Is(err, errNothingToSettle), errors.Is(err, storage.ErrSettled):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// currentUser returns the authenticated caller set by the auth interceptor.
func currentUser(ctx context.Context) (int64, error) {
	userID := middleware.GetUserID(ctx)
	if userID == 0 {
		return 0, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

func invalidArgument(format string, args ...any) *connect.Error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}
