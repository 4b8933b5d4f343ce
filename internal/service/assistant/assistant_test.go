package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"support-chat/internal/repository/db"
	"support-chat/internal/service/llm"
	"support-chat/internal/testutil"
)

func TestNewAssistant_DefaultPrompt(t *testing.T) {
	a := NewAssistant(&testutil.MockCompleter{}, "")
	if !strings.HasPrefix(a.systemPrompt, "IDENTIDADE") {
		t.Errorf("Expected built-in prompt, got %q", a.systemPrompt[:20])
	}

	custom := NewAssistant(&testutil.MockCompleter{}, "custom")
	if custom.systemPrompt != "custom" {
		t.Errorf("systemPrompt = %q, want custom", custom.systemPrompt)
	}
}

func TestBuildTurns_HistoryWindow(t *testing.T) {
	a := NewAssistant(&testutil.MockCompleter{}, "sys")

	var history []HistoryEntry
	for i := 1; i <= 8; i++ {
		role := "user"
		if i%2 == 0 {
			role = "bot"
		}
		history = append(history, HistoryEntry{Role: role, Content: fmt.Sprintf("m%d", i)})
	}

	turns := a.BuildTurns(Request{Query: "now", History: history})

	// system + 5 history + query
	if len(turns) != 7 {
		t.Fatalf("Expected 7 turns, got %d", len(turns))
	}
	for i, want := range []string{"m4", "m5", "m6", "m7", "m8"} {
		if turns[i+1].Content != want {
			t.Errorf("turns[%d] = %q, want %q", i+1, turns[i+1].Content, want)
		}
	}
	if turns[6].Role != llm.RoleUser || turns[6].Content != "now" {
		t.Errorf("last turn = %+v, want user query", turns[6])
	}
}

func TestBuildTurns_RoleMapping(t *testing.T) {
	a := NewAssistant(&testutil.MockCompleter{}, "sys")

	turns := a.BuildTurns(Request{
		Query: "q",
		History: []HistoryEntry{
			{Role: "user", Content: "a"},
			{Role: "bot", Content: "b"},
			{Role: "assistant", Content: "c"},
		},
	})

	want := []llm.Role{llm.RoleSystem, llm.RoleUser, llm.RoleAssistant, llm.RoleAssistant, llm.RoleUser}
	for i, role := range want {
		if turns[i].Role != role {
			t.Errorf("turns[%d].Role = %q, want %q", i, turns[i].Role, role)
		}
	}
}

func TestBuildTurns_SystemBlock(t *testing.T) {
	a := NewAssistant(&testutil.MockCompleter{}, "sys")
	account := &db.BankAccount{AccountName: "Ana", AccountNumber: "12345"}
	facts := "\n\n👤 Informações do cliente:\n- Nome: Ana\n- Número da conta: 12345\n"

	tests := []struct {
		name    string
		prompt  string
		account *db.BankAccount
		want    string
	}{
		{name: "own prompt", want: "sys"},
		{name: "own prompt with account", account: account, want: "sys" + facts},
		{name: "caller prompt replaces own", prompt: "client", account: account, want: "client" + facts},
		{name: "caller prompt already has facts", prompt: "client" + facts, account: account, want: "client" + facts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns := a.BuildTurns(Request{Query: "q", SystemPrompt: tt.prompt, Account: tt.account})
			if turns[0].Content != tt.want {
				t.Errorf("system turn = %q, want %q", turns[0].Content, tt.want)
			}
		})
	}
}

func TestAnswer(t *testing.T) {
	tests := []struct {
		name       string
		completion llm.Completion
		err        error
		want       string
	}{
		{
			name:       "text verbatim",
			completion: llm.Completion{Kind: llm.KindText, Text: "Olá"},
			want:       "Olá",
		},
		{
			name: "parts joined",
			completion: llm.Completion{Kind: llm.KindParts, Parts: []llm.Part{
				{Type: llm.PartText, Text: "a"},
				{Type: "image_url"},
				{Type: llm.PartText, Text: "b"},
			}},
			want: "a\nb",
		},
		{
			name:       "unrecognized",
			completion: llm.Completion{Kind: llm.KindUnrecognized},
			want:       UnrecognizedAnswer,
		},
		{
			name: "provider error",
			err:  errors.New("timeout"),
			want: FailureAnswer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &testutil.MockCompleter{
				CompleteFunc: func(ctx context.Context, turns []llm.Turn) (llm.Completion, error) {
					return tt.completion, tt.err
				},
			}
			a := NewAssistant(mock, "sys")

			if got := a.Answer(context.Background(), Request{Query: "q"}); got != tt.want {
				t.Errorf("Answer() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnswer_IgnoresCallerCancellation(t *testing.T) {
	mock := &testutil.MockCompleter{
		CompleteFunc: func(ctx context.Context, turns []llm.Turn) (llm.Completion, error) {
			if err := ctx.Err(); err != nil {
				return llm.Completion{}, err
			}
			return llm.Completion{Kind: llm.KindText, Text: "ok"}, nil
		},
	}
	a := NewAssistant(mock, "sys")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := a.Answer(ctx, Request{Query: "q"}); got != "ok" {
		t.Errorf("Answer() = %q, want ok", got)
	}
}

func TestHistoryFromMessages(t *testing.T) {
	history := HistoryFromMessages([]db.Message{
		{Sender: db.SenderUser, Content: "q"},
		{Sender: db.SenderBot, Content: "a"},
	})
	if len(history) != 2 || history[0].Role != "user" || history[1].Role != "bot" {
		t.Errorf("HistoryFromMessages() = %+v", history)
	}
}
