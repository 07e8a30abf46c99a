package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("retention.rules", "at least one rule is required")
	if !strings.Contains(err.Error(), "retention.rules") {
		t.Errorf("Error() = %q, want field name included", err.Error())
	}
}

func TestCommandError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := NewCommandError("age", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() = false, want wrapped cause")
	}
	if !strings.Contains(err.Error(), "age") {
		t.Errorf("Error() = %q, want command name included", err.Error())
	}
}

func TestUsageError(t *testing.T) {
	err := NewUsageError("--tag-key-vals", "missing key")
	if !strings.Contains(err.Error(), "--tag-key-vals") {
		t.Errorf("Error() = %q, want flag name included", err.Error())
	}
}
