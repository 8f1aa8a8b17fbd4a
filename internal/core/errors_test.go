package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	t.Parallel()
	err := ErrPlanning(CodeInvalidWordCount, "bad count")
	want := "[planning] INVALID_WORD_COUNT: bad count"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := ErrBackend("call failed").WithCause(errors.New("boom"))
	if got := wrapped.Error(); got != "[backend] BACKEND_FAILED: call failed (boom)" {
		t.Errorf("Error() with cause = %q", got)
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("root")
	err := ErrSection(CodeSectionFailed, "section died").WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find cause")
	}
}

func TestDomainError_Is(t *testing.T) {
	t.Parallel()
	a := ErrTimeout("slow")
	b := ErrTimeout("other message")
	if !errors.Is(a, b) {
		t.Error("errors with same category and code should match")
	}
	if errors.Is(a, ErrBackend("x")) {
		t.Error("different categories should not match")
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want bool
	}{
		{ErrBackend("transient"), true},
		{ErrTimeout("slow"), true},
		{ErrSection(CodeSectionFailed, "failed"), true},
		{ErrPlanning(CodeEmptyPlan, "empty"), false},
		{ErrAssembly(CodeElementUnplaced, "no home"), false},
		{errors.New("plain"), false},
		{fmt.Errorf("wrapped: %w", ErrBackend("inner")), true},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestGetCategory(t *testing.T) {
	t.Parallel()
	if got := GetCategory(ErrCycle("loop")); got != ErrCatCycle {
		t.Errorf("GetCategory = %s, want %s", got, ErrCatCycle)
	}
	if got := GetCategory(errors.New("plain")); got != ErrCatInternal {
		t.Errorf("GetCategory(plain) = %s, want internal", got)
	}
}
