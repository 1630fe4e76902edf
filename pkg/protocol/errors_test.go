package protocol

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKind(t *testing.T) {
	tests := []struct {
		kind Kind
		code int
		desc string
		str  string
	}{
		{KindNoSuchMessage, 1, "No such message", "1, No such message"},
		{KindParseMessageFailed, 2, "Parse message failed", "2, Parse message failed"},
		{KindDefault, 100, "default exception", "100, default exception"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if tt.kind.Code() != tt.code {
				t.Errorf("Code() = %d, want %d", tt.kind.Code(), tt.code)
			}
			if tt.kind.Description() != tt.desc {
				t.Errorf("Description() = %q, want %q", tt.kind.Description(), tt.desc)
			}
			if tt.kind.String() != tt.str {
				t.Errorf("String() = %q, want %q", tt.kind.String(), tt.str)
			}
		})
	}
}

func TestError_Constructors(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		name string
		err  error
		kind Kind
		msg  string
	}{
		{"New", New(KindNoSuchMessage, "tag 9"), KindNoSuchMessage, "No such message: tag 9"},
		{"Errorf", Errorf(KindParseMessageFailed, "%d bytes", 3), KindParseMessageFailed, "Parse message failed: 3 bytes"},
		{"Wrap", Wrap(KindParseMessageFailed, base, "decode"), KindParseMessageFailed, "Parse message failed: decode: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if KindOf(tt.err) != tt.kind {
				t.Errorf("KindOf() = %v, want %v", KindOf(tt.err), tt.kind)
			}
			if tt.err.Error() != tt.msg {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.msg)
			}
		})
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	base := errors.New("root cause")
	err := Wrap(KindParseMessageFailed, base, "context")
	if !errors.Is(err, base) {
		t.Error("wrapped error should match its cause")
	}
	// pkg/errors records a stack trace on the cause.
	if !strings.Contains(fmt.Sprintf("%+v", errors.Unwrap(err)), "TestWrap_KeepsCause") {
		t.Error("expected a stack trace on the cause")
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(nil) != 0 {
		t.Error("KindOf(nil) should be 0")
	}
	if KindOf(errors.New("plain")) != KindDefault {
		t.Error("non-protocol errors should report KindDefault")
	}
	nested := fmt.Errorf("outer: %w", New(KindNoSuchMessage, "x"))
	if KindOf(nested) != KindNoSuchMessage {
		t.Error("KindOf should search the error chain")
	}
}
