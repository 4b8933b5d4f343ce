package validation

import (
	"errors"
	"fmt"
	"testing"
)

type testTurn struct {
	Role    string `json:"role" validate:"required,oneof=user bot"`
	Content string `json:"content" validate:"required"`
}

type testInput struct {
	ConversationID int64      `json:"conversationId" validate:"gt=0"`
	Title          string     `json:"title,omitempty" validate:"max=10"`
	History        []testTurn `json:"history" validate:"dive"`
}

func TestValidator_Struct(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		input     testInput
		wantErr   bool
		wantField string
		wantMsg   string
	}{
		{
			name:  "valid input",
			input: testInput{ConversationID: 1, History: []testTurn{{Role: "user", Content: "oi"}}},
		},
		{
			name:      "zero id",
			input:     testInput{ConversationID: 0},
			wantErr:   true,
			wantField: "conversationId",
			wantMsg:   "conversationId must be greater than 0",
		},
		{
			name:      "title too long",
			input:     testInput{ConversationID: 1, Title: "a very long title"},
			wantErr:   true,
			wantField: "title",
			wantMsg:   "title must be at most 10 characters long",
		},
		{
			name:      "bad role in history",
			input:     testInput{ConversationID: 1, History: []testTurn{{Role: "system", Content: "x"}}},
			wantErr:   true,
			wantField: "history[0].role",
			wantMsg:   "history[0].role must be one of: user, bot",
		},
		{
			name:      "missing content in history",
			input:     testInput{ConversationID: 1, History: []testTurn{{Role: "bot"}}},
			wantErr:   true,
			wantField: "history[0].content",
			wantMsg:   "history[0].content is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var vErr *Error
			if !errors.As(err, &vErr) {
				t.Fatalf("Struct() error type = %T, want *Error", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", vErr.Field, tt.wantField)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestIsValidationError(t *testing.T) {
	if !IsValidationError(NewError("openId", "is required")) {
		t.Error("IsValidationError() = false for *Error")
	}
	if !IsValidationError(fmt.Errorf("wrapped: %w", NewError("x", "y"))) {
		t.Error("IsValidationError() = false for wrapped *Error")
	}
	if IsValidationError(errors.New("plain")) {
		t.Error("IsValidationError() = true for plain error")
	}
}
