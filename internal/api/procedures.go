package api

import (
	"support-chat/internal/app"
	"support-chat/internal/auth"
	"support-chat/internal/repository/db"
	accountService "support-chat/internal/service/account"
	"support-chat/internal/service/assistant"
	chatService "support-chat/internal/service/chat"
	conversationService "support-chat/internal/service/conversation"
	"support-chat/pkg/validation"
)

// Request types

type createConversationInput struct {
	Title string `json:"title" validate:"max=255"`
}

type conversationInput struct {
	ConversationID int64 `json:"conversationId" validate:"required,gt=0"`
}

type saveMessageInput struct {
	ConversationID int64  `json:"conversationId" validate:"required,gt=0"`
	Sender         string `json:"sender" validate:"required,oneof=user bot"`
	Content        string `json:"content" validate:"required"`
}

type rateMessageInput struct {
	MessageID int64  `json:"messageId" validate:"required,gt=0"`
	Rating    string `json:"rating" validate:"required,oneof=positive negative"`
}

type historyInput struct {
	Role    string `json:"role" validate:"required,oneof=user bot assistant"`
	Content string `json:"content" validate:"required"`
}

type askAIInput struct {
	Query               string         `json:"query" validate:"required"`
	SystemPrompt        string         `json:"systemPrompt" validate:"required"`
	ConversationHistory []historyInput `json:"conversationHistory" validate:"omitempty,dive"`
}

type sendMessageInput struct {
	ConversationID int64  `json:"conversationId" validate:"required,gt=0"`
	Query          string `json:"query" validate:"required"`
}

type bankAccountInput struct {
	AccountName   string `json:"accountName" validate:"required,max=255"`
	AccountNumber string `json:"accountNumber" validate:"required,max=64"`
}

type searchInput struct {
	Query string `json:"query" validate:"required"`
}

// Response types

type successResponse struct {
	Success bool `json:"success"`
}

type conversationCreatedResponse struct {
	ConversationID *int64 `json:"conversationId"`
}

type messageSavedResponse struct {
	MessageID *int64 `json:"messageId"`
}

type answerResponse struct {
	Answer string `json:"answer"`
}

// API serves the procedure table
type API struct {
	config        *app.Config
	sessions      *auth.SessionManager
	validator     *validation.Validator
	chat          *chatService.ChatService
	conversations *conversationService.ConversationService
	accounts      *accountService.AccountService
	procedures    map[string]Procedure
}

// NewAPI creates the API with its services
func NewAPI(config *app.Config, sessions *auth.SessionManager) *API {
	a := &API{
		config:        config,
		sessions:      sessions,
		validator:     validation.NewValidator(),
		chat:          chatService.NewChatService(config.DB, config),
		conversations: conversationService.NewConversationService(config.DB),
		accounts:      accountService.NewAccountService(config.DB),
	}

	a.procedures = make(map[string]Procedure)
	for _, proc := range a.table() {
		a.procedures[proc.Name] = proc
	}
	return a
}

func (a *API) table() []Procedure {
	return []Procedure{
		{Name: "auth.me", Kind: Query, Access: Public, Handler: a.me},
		{Name: "auth.logout", Kind: Mutation, Access: Public, Handler: a.logout},

		{Name: "chat.createConversation", Kind: Mutation, Access: Protected, Handler: a.createConversation},
		{Name: "chat.getConversations", Kind: Query, Access: Protected, Handler: a.getConversations},
		{Name: "chat.getMessages", Kind: Query, Access: Protected, Handler: a.getMessages},
		{Name: "chat.saveMessage", Kind: Mutation, Access: Protected, Handler: a.saveMessage},
		{Name: "chat.rateMessage", Kind: Mutation, Access: Protected, Handler: a.rateMessage},
		{Name: "chat.askAI", Kind: Mutation, Access: Protected, Handler: a.askAI},
		{Name: "chat.sendMessage", Kind: Mutation, Access: Protected, Handler: a.sendMessage},

		{Name: "bankAccount.get", Kind: Query, Access: Protected, Handler: a.getBankAccount},
		{Name: "bankAccount.create", Kind: Mutation, Access: Protected, Handler: a.createBankAccount},

		{Name: "searchHistory.add", Kind: Mutation, Access: Protected, Handler: a.addSearch},
		{Name: "searchHistory.getRecent", Kind: Query, Access: Protected, Handler: a.getRecentSearches},
	}
}

func (a *API) me(c *Call) (any, error) {
	if c.User == nil {
		return nil, nil
	}
	return c.User, nil
}

func (a *API) logout(c *Call) (any, error) {
	a.sessions.ClearCookie(c.Writer)
	return successResponse{Success: true}, nil
}

func (a *API) createConversation(c *Call) (any, error) {
	var in createConversationInput
	if err := c.Bind(&in); err != nil {
		return nil, err
	}

	conv, err := a.conversations.CreateConversation(c.User.ID, in.Title)
	if err != nil {
		return nil, err
	}

	resp := conversationCreatedResponse{}
	if conv != nil {
		resp.ConversationID = &conv.ID
	}
	return resp, nil
}

func (a *API) getConversations(c *Call) (any, error) {
	return a.conversations.GetConversations(c.User.ID)
}

func (a *API) getMessages(c *Call) (any, error) {
	var in conversationInput
	if err := c.Bind(&in); err != nil {
		return nil, err
	}
	return a.conversations.GetMessages(c.User.ID, in.ConversationID)
}

func (a *API) saveMessage(c *Call) (any, error) {
	var in saveMessageInput
	if err := c.Bind(&in); err != nil {
		return nil, err
	}

	msg, err := a.conversations.SaveMessage(c.User.ID, in.ConversationID, db.Sender(in.Sender), in.Content)
	if err != nil {
		return nil, err
	}

	resp := messageSavedResponse{}
	if msg != nil {
		resp.MessageID = &msg.ID
	}
	return resp, nil
}

func (a *API) rateMessage(c *Call) (any, error) {
	var in rateMessageInput
	if err := c.Bind(&in); err != nil {
		return nil, err
	}

	if err := a.conversations.RateMessage(c.User.ID, in.MessageID, db.Rating(in.Rating)); err != nil {
		return nil, err
	}
	return successResponse{Success: true}, nil
}

func (a *API) askAI(c *Call) (any, error) {
	var in askAIInput
	if err := c.Bind(&in); err != nil {
		return nil, err
	}

	history := make([]assistant.HistoryEntry, 0, len(in.ConversationHistory))
	for _, entry := range in.ConversationHistory {
		history = append(history, assistant.HistoryEntry{Role: entry.Role, Content: entry.Content})
	}

	answer := a.chat.AskAI(c.Context(), chatService.AskRequest{
		Query:        in.Query,
		SystemPrompt: in.SystemPrompt,
		History:      history,
		UserID:       c.User.ID,
	})
	return answerResponse{Answer: answer}, nil
}

func (a *API) sendMessage(c *Call) (any, error) {
	var in sendMessageInput
	if err := c.Bind(&in); err != nil {
		return nil, err
	}
	return a.chat.SendMessage(c.Context(), c.User.ID, in.ConversationID, in.Query)
}

func (a *API) getBankAccount(c *Call) (any, error) {
	account, err := a.accounts.GetBankAccount(c.User.ID)
	if err != nil || account == nil {
		return nil, err
	}
	return account, nil
}

func (a *API) createBankAccount(c *Call) (any, error) {
	var in bankAccountInput
	if err := c.Bind(&in); err != nil {
		return nil, err
	}

	account, err := a.accounts.CreateBankAccount(c.User.ID, in.AccountName, in.AccountNumber)
	if err != nil || account == nil {
		return nil, err
	}
	return account, nil
}

func (a *API) addSearch(c *Call) (any, error) {
	var in searchInput
	if err := c.Bind(&in); err != nil {
		return nil, err
	}

	if err := a.accounts.AddSearch(c.User.ID, in.Query); err != nil {
		return nil, err
	}
	return successResponse{Success: true}, nil
}

func (a *API) getRecentSearches(c *Call) (any, error) {
	return a.accounts.GetRecentSearches(c.User.ID)
}
