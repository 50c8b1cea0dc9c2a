package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFound_WrapsSentinel(t *testing.T) {
	err := PostNotFound(7)

	if !IsNotFound(err) {
		t.Error("Expected IsNotFound to be true")
	}
	if IsValidationError(err) {
		t.Error("Expected IsValidationError to be false")
	}
	if err.Error() != "post not found: 7" {
		t.Errorf("Error() = %q", err.Error())
	}

	wrapped := fmt.Errorf("select: %w", err)
	var nf *NotFoundError
	if !errors.As(wrapped, &nf) {
		t.Fatal("Expected errors.As to find NotFoundError through wrapping")
	}
	if nf.Resource != "post" {
		t.Errorf("Resource = %q, want %q", nf.Resource, "post")
	}
}

func TestValidationError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{"with field", &ValidationError{Field: "id", Message: "must be a number"}, "invalid id: must be a number"},
		{"without field", &ValidationError{Message: "bad request"}, "bad request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !IsValidationError(tt.err) {
				t.Error("Expected IsValidationError to be true")
			}
		})
	}
}
