package assistant

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"support-chat/internal/logger"
	"support-chat/internal/repository/db"
	"support-chat/internal/service/llm"

	"github.com/sirupsen/logrus"
)

//go:embed prompt.txt
var defaultSystemPrompt string

// HistoryWindow is the number of prior entries sent with each question
const HistoryWindow = 5

const (
	// FailureAnswer is returned when the completion call fails
	FailureAnswer = "Desculpe, não consegui processar sua mensagem. Por favor, tente novamente mais tarde."
	// UnrecognizedAnswer is returned when the provider answer has no usable shape
	UnrecognizedAnswer = "Desculpe, não consegui processar sua mensagem."
)

// HistoryEntry is a prior message. Role is "user", "bot" or "assistant".
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// accountFactsHeading labels the account facts block inside a system prompt
const accountFactsHeading = "👤 Informações do cliente:"

// Request is one question to the assistant. A non-empty SystemPrompt replaces the
// assistant's own prompt for this request.
type Request struct {
	Query        string
	SystemPrompt string
	History      []HistoryEntry
	Account      *db.BankAccount
}

// Assistant answers support questions through a completion provider
type Assistant struct {
	completer    llm.Completer
	systemPrompt string
}

// NewAssistant creates an Assistant. An empty systemPrompt selects the built-in brand prompt.
func NewAssistant(completer llm.Completer, systemPrompt string) *Assistant {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = strings.TrimSpace(defaultSystemPrompt)
	}
	return &Assistant{
		completer:    completer,
		systemPrompt: systemPrompt,
	}
}

// Answer asks the provider and always returns displayable text.
// The call is detached from ctx cancellation so a dropped client does not abort it.
func (a *Assistant) Answer(ctx context.Context, req Request) string {
	turns := a.BuildTurns(req)

	logger.Log.WithFields(logrus.Fields{
		"turns":       len(turns),
		"has_account": req.Account != nil,
	}).Debug("Asking assistant")

	completion, err := a.completer.Complete(context.WithoutCancel(ctx), turns)
	if err != nil {
		logger.Log.WithError(err).Error("Completion call failed")
		return FailureAnswer
	}

	return Normalize(completion)
}

// BuildTurns assembles the system block, the bounded history and the query.
// Account facts are appended unless the system prompt already carries them.
func (a *Assistant) BuildTurns(req Request) []llm.Turn {
	system := a.systemPrompt
	if strings.TrimSpace(req.SystemPrompt) != "" {
		system = req.SystemPrompt
	}
	if !strings.Contains(system, accountFactsHeading) {
		system += AccountFacts(req.Account)
	}

	history := req.History
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	turns := make([]llm.Turn, 0, len(history)+2)
	turns = append(turns, llm.Turn{Role: llm.RoleSystem, Content: system})
	for _, entry := range history {
		turns = append(turns, llm.Turn{Role: historyRole(entry.Role), Content: entry.Content})
	}
	turns = append(turns, llm.Turn{Role: llm.RoleUser, Content: req.Query})

	return turns
}

func historyRole(role string) llm.Role {
	if role == string(db.SenderUser) {
		return llm.RoleUser
	}
	return llm.RoleAssistant
}

// AccountFacts renders the caller's linked account, or "" when there is none
func AccountFacts(account *db.BankAccount) string {
	if account == nil {
		return ""
	}
	return fmt.Sprintf("\n\n%s\n- Nome: %s\n- Número da conta: %s\n", accountFactsHeading, account.AccountName, account.AccountNumber)
}

// Normalize turns a provider answer into text. Parts keep only text-typed entries, one per line.
func Normalize(completion llm.Completion) string {
	switch completion.Kind {
	case llm.KindText:
		return completion.Text
	case llm.KindParts:
		texts := make([]string, 0, len(completion.Parts))
		for _, part := range completion.Parts {
			if part.Type == llm.PartText {
				texts = append(texts, part.Text)
			}
		}
		return strings.Join(texts, "\n")
	default:
		return UnrecognizedAnswer
	}
}

// HistoryFromMessages converts stored messages to history entries, oldest first
func HistoryFromMessages(messages []db.Message) []HistoryEntry {
	history := make([]HistoryEntry, 0, len(messages))
	for _, msg := range messages {
		history = append(history, HistoryEntry{Role: string(msg.Sender), Content: msg.Content})
	}
	return history
}
