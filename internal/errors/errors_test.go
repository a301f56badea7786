package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorMessageIncludesCode(t *testing.T) {
	err := NewNoOpenClock("piano")
	if !strings.Contains(err.Error(), "NO_OPEN_CLOCK") {
		t.Errorf("Error() = %q, should contain code", err.Error())
	}
	if !strings.Contains(err.Error(), "piano") {
		t.Errorf("Error() = %q, should name the target", err.Error())
	}
}

func TestNoOpenClockWithoutTarget(t *testing.T) {
	err := NewNoOpenClock("")
	if err.Message != "no open clock" {
		t.Errorf("Message = %q, want %q", err.Message, "no open clock")
	}
	if err.Details != nil {
		t.Errorf("Details = %v, want nil", err.Details)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{
			name: "matching code",
			err:  NewClockAlreadyOpen("task-1"),
			code: ErrClockAlreadyOpen,
			want: true,
		},
		{
			name: "different code",
			err:  NewClockAlreadyOpen("task-1"),
			code: ErrNoOpenClock,
			want: false,
		},
		{
			name: "plain error",
			err:  stderrors.New("boom"),
			code: ErrInternal,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			code: ErrInternal,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusCodes(t *testing.T) {
	if got := NewInvalidRequest("x").Status; got != 400 {
		t.Errorf("NewInvalidRequest status = %d, want 400", got)
	}
	if got := NewNotFound("x").Status; got != 404 {
		t.Errorf("NewNotFound status = %d, want 404", got)
	}
	if got := NewBlockInvalid("a.md", 3, "bad").Status; got != 422 {
		t.Errorf("NewBlockInvalid status = %d, want 422", got)
	}
	if got := NewInternal(nil).Status; got != 500 {
		t.Errorf("NewInternal status = %d, want 500", got)
	}
}

func TestBlockInvalidIncludesLocation(t *testing.T) {
	err := NewBlockInvalid("daily/2025-01-01.md", 12, "activity name missing")
	if !strings.Contains(err.Message, "daily/2025-01-01.md:12") {
		t.Errorf("Message = %q, should contain path:line", err.Message)
	}
}
