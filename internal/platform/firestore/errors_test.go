package firestore

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestWrapErrorClassification(t *testing.T) {
	cases := []struct {
		code  codes.Code
		check func(*Error) bool
	}{
		{codes.NotFound, (*Error).IsNotFound},
		{codes.Aborted, (*Error).IsConflict},
		{codes.Unavailable, (*Error).IsUnavailable},
		{codes.PermissionDenied, (*Error).IsPermissionDenied},
		{codes.Unauthenticated, (*Error).IsPermissionDenied},
		{codes.ResourceExhausted, (*Error).IsQuotaExceeded},
		{codes.InvalidArgument, (*Error).IsQuotaExceeded},
		{codes.FailedPrecondition, (*Error).IsMisconfigured},
	}
	for _, tc := range cases {
		t.Run(tc.code.String(), func(t *testing.T) {
			err := WrapError("store.get", status.Error(tc.code, "boom"))
			var ferr *Error
			if !errors.As(err, &ferr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if !tc.check(ferr) {
				t.Fatalf("classification mismatch for %s", tc.code)
			}
		})
	}
}

func TestWrapErrorPassesContextErrors(t *testing.T) {
	if err := WrapError("op", context.Canceled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := WrapError("op", status.Error(codes.DeadlineExceeded, "slow")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	if WrapError("op", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestWrapErrorKeepsExistingOp(t *testing.T) {
	first := WrapError("", status.Error(codes.NotFound, "missing"))
	again := WrapError("store.load", first)
	if again.Error() != "store.load: rpc error: code = NotFound desc = missing" {
		t.Fatalf("unexpected message %q", again.Error())
	}
}

func TestProviderClientAfterClose(t *testing.T) {
	var p *Provider
	if _, err := p.Client(); !errors.Is(err, ErrProviderClosed) {
		t.Fatalf("expected ErrProviderClosed, got %v", err)
	}
	p = NewProviderFromClient(nil)
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("close of empty provider: %v", err)
	}
	if _, err := p.Client(); !errors.Is(err, ErrProviderClosed) {
		t.Fatalf("expected ErrProviderClosed, got %v", err)
	}
}
