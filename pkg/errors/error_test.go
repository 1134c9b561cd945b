package errors_test

import (
	"errors"
	"fmt"
	"testing"

	. "autograder/pkg/errors"
)

func TestErrorCode_Message(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{Success, "Success"},
		{MissingCredentials, "Canvas credentials are missing"},
		{InvalidParams, "Invalid parameters"},
		{AttachmentDownloadFailed, "Attachment download failed"},
		{ErrorCode(99999), "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.code.Message(); got != tt.want {
				t.Errorf("Message() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCode_ExitCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		wantExit int
		fatal    bool
	}{
		{Success, 0, false},
		{ConfigInvalid, 2, true},
		{MissingCredentials, 2, true},
		{InvalidUserID, 2, true},
		{CanvasRequestFailed, 1, false},
		{DatasetLoadFailed, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.code.Message(), func(t *testing.T) {
			if got := tt.code.ExitCode(); got != tt.wantExit {
				t.Errorf("ExitCode() = %v, want %v", got, tt.wantExit)
			}
			if got := tt.code.Fatal(); got != tt.fatal {
				t.Errorf("Fatal() = %v, want %v", got, tt.fatal)
			}
		})
	}
}

func TestNew(t *testing.T) {
	err := New(AssignmentNotFound)

	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if err.Code != AssignmentNotFound {
		t.Errorf("Code = %v, want %v", err.Code, AssignmentNotFound)
	}
	if err.Error() != "Assignment not found" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Stack == "" {
		t.Error("Expected stack trace to be captured")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, InternalError) != nil {
		t.Fatal("Wrap(nil) should return nil")
	}

	base := errors.New("connection reset")
	err := Wrapf(base, CanvasRequestFailed, "assignment query failed")

	if err.Error() != "assignment query failed: connection reset" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestGetCodeAndIs(t *testing.T) {
	inner := New(UnsafeAttachmentName)
	outer := fmt.Errorf("submission 900: %w", inner)

	if got := GetCode(outer); got != UnsafeAttachmentName {
		t.Errorf("GetCode() = %v, want %v", got, UnsafeAttachmentName)
	}
	if got := GetCode(errors.New("plain")); got != InternalError {
		t.Errorf("GetCode(plain) = %v, want %v", got, InternalError)
	}
	if got := GetCode(nil); got != Success {
		t.Errorf("GetCode(nil) = %v, want %v", got, Success)
	}

	chained := Wrapf(inner, WorkspaceFailed, "prepare workspace failed")
	if !Is(chained, WorkspaceFailed) || !Is(chained, UnsafeAttachmentName) {
		t.Error("Is should match every code in the chain")
	}
	if Is(chained, DatasetInvalid) {
		t.Error("Is matched an unrelated code")
	}
}

func TestWithDetail(t *testing.T) {
	err := ConfigError("canvas endpoint", "required").WithDetail("source", "env")

	if err.Code != ConfigInvalid {
		t.Errorf("Code = %v, want %v", err.Code, ConfigInvalid)
	}
	if err.Details["setting"] != "canvas endpoint" || err.Details["source"] != "env" {
		t.Errorf("Details = %v", err.Details)
	}
	if err.Error() != "invalid canvas endpoint: required" {
		t.Errorf("Error() = %q", err.Error())
	}
}
