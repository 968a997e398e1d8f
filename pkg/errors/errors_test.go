package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"kind only", &Error{Kind: KindShape, Message: "bad"}, "SHAPE_ERROR: bad"},
		{"with stage", &Error{Kind: KindShape, Stage: StageGrayscale, Message: "bad"}, "SHAPE_ERROR [grayscale]: bad"},
		{"with field", &Error{Kind: KindInvalidSize, Field: "width", Message: "must be positive"}, "INVALID_SIZE width: must be positive"},
		{"with cause", &Error{Kind: KindProcessing, Message: "failed", Cause: errors.New("boom")}, "PROCESSING_ERROR: failed: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestWithStage(t *testing.T) {
	err := New(KindUnsupportedMethod, "method", "unknown method")
	tagged := WithStage(err, StageExposure)

	if StageOf(tagged) != StageExposure {
		t.Errorf("Expected stage %q, got %q", StageExposure, StageOf(tagged))
	}
	if !Is(tagged, KindUnsupportedMethod) {
		t.Errorf("Expected kind %q, got %q", KindUnsupportedMethod, KindOf(tagged))
	}
	if err.Stage != "" {
		t.Errorf("WithStage must not mutate the original error")
	}

	retagged := WithStage(tagged, StageCompositor)
	if StageOf(retagged) != StageExposure {
		t.Errorf("Expected innermost stage to be kept, got %q", StageOf(retagged))
	}

	plain := WithStage(fmt.Errorf("io: %w", errors.New("eof")), StageThreshold)
	if !Is(plain, KindProcessing) {
		t.Errorf("Expected plain errors to become %q, got %q", KindProcessing, KindOf(plain))
	}
	if !strings.Contains(plain.Error(), "eof") {
		t.Errorf("Expected cause to be kept in %q", plain.Error())
	}

	if WithStage(nil, StageBoundary) != nil {
		t.Errorf("Expected nil for nil error")
	}
}

func TestWrappedLookup(t *testing.T) {
	base := New(KindInvalidSize, "height", "height must be positive, got %d", 0)
	wrapped := fmt.Errorf("run failed: %w", base)

	if !Is(wrapped, KindInvalidSize) {
		t.Errorf("Expected Is to see through fmt wrapping")
	}
	if Is(wrapped, KindShape) {
		t.Errorf("Expected Is to reject a different kind")
	}
	if got := UserMessage(wrapped); got != "height must be positive, got 0" {
		t.Errorf("Unexpected user message %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("Unexpected user message %q", got)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Errorf("Expected empty kind for plain error")
	}
}
