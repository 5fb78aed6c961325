package round

import (
	"errors"
	"testing"
)

func TestError_Message(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"message and cause", Collaborator(cause, "store is down"), "collaborator: store is down: disk full"},
		{"cause only", Collaborator(cause, ""), "collaborator: disk full"},
		{"message only", Validation("need %d letters", 5), "validation: need 5 letters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	if !errors.Is(Collaborator(cause, ""), cause) {
		t.Error("Collaborator should unwrap to its cause")
	}
}
