package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"support-chat/internal/app"
	"support-chat/internal/auth"
	"support-chat/internal/repository/db"
	"support-chat/internal/repository/memory"
	"support-chat/internal/testutil"
)

type testEnv struct {
	config    *app.Config
	store     *memory.Store
	completer *testutil.MockCompleter
	handler   http.Handler
	token     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore("")
	completer := &testutil.MockCompleter{}
	config := testutil.NewMockConfig(store, completer)

	token, _, err := auth.NewSessionManager(config.AppConfig.Auth).Issue(auth.Identity{OpenID: "u1", Name: "Ana"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	return &testEnv{
		config:    config,
		store:     store,
		completer: completer,
		handler:   NewRouter(config),
		token:     token,
	}
}

type rpcResponse struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
	Error *errorBody `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, procedure string, input any, authenticated bool) (int, rpcResponse) {
	t.Helper()

	var body []byte
	if input != nil {
		var err error
		if body, err = json.Marshal(input); err != nil {
			t.Fatalf("marshal input: %v", err)
		}
	}

	target := "/api/trpc/" + procedure
	var req *http.Request
	if method == http.MethodGet {
		if body != nil {
			target += "?input=" + url.QueryEscape(string(body))
		}
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.AddCookie(&http.Cookie{Name: "app_session_id", Value: e.token})
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var resp rpcResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestProtected_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.do(t, http.MethodPost, "searchHistory.add", map[string]string{"query": "pix"}, false)
	if status != http.StatusUnauthorized || resp.Error == nil || resp.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("status = %d, error = %+v; want 401 UNAUTHORIZED", status, resp.Error)
	}
	if entries, _ := env.store.ListRecentSearches(1, 5); len(entries) != 0 {
		t.Error("Expected no side effects for unauthenticated call")
	}
}

func TestAuthMe(t *testing.T) {
	env := newTestEnv(t)

	_, anon := env.do(t, http.MethodGet, "auth.me", nil, false)
	if anon.Result == nil || string(anon.Result.Data) != "null" {
		t.Errorf("anonymous auth.me = %+v, want null data", anon.Result)
	}

	status, resp := env.do(t, http.MethodGet, "auth.me", nil, true)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	var user db.User
	json.Unmarshal(resp.Result.Data, &user)
	if user.OpenID != "u1" || user.Role != db.RoleUser {
		t.Errorf("user = %+v", user)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/trpc/auth.logout", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Set-Cookie") == "" {
		t.Error("Expected Set-Cookie header")
	}
}

func TestValidationError_NoSideEffects(t *testing.T) {
	tests := []struct {
		name      string
		procedure string
		input     any
	}{
		{name: "missing query", procedure: "searchHistory.add", input: map[string]string{}},
		{name: "empty query", procedure: "searchHistory.add", input: map[string]string{"query": ""}},
		{name: "unknown field", procedure: "searchHistory.add", input: map[string]string{"query": "x", "extra": "y"}},
		{name: "bad rating", procedure: "chat.rateMessage", input: map[string]any{"messageId": 1, "rating": "meh"}},
		{name: "bad sender", procedure: "chat.saveMessage", input: map[string]any{"conversationId": 1, "sender": "admin", "content": "x"}},
		{name: "missing system prompt", procedure: "chat.askAI", input: map[string]any{"query": "oi"}},
		{name: "bad history role", procedure: "chat.askAI", input: map[string]any{
			"query":               "q",
			"systemPrompt":        "sys",
			"conversationHistory": []map[string]string{{"role": "system", "content": "x"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			status, resp := env.do(t, http.MethodPost, tt.procedure, tt.input, true)
			if status != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != "BAD_REQUEST" {
				t.Fatalf("status = %d, error = %+v; want 400 BAD_REQUEST", status, resp.Error)
			}
			if len(env.completer.Calls) != 0 {
				t.Error("Expected no completion call")
			}
			user, _ := env.store.GetUserByOpenID("u1")
			if entries, _ := env.store.ListRecentSearches(user.ID, 5); len(entries) != 0 {
				t.Error("Expected no search entries written")
			}
		})
	}
}

func TestMethodNotSupported(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.do(t, http.MethodGet, "searchHistory.add", map[string]string{"query": "x"}, true)
	if status != http.StatusMethodNotAllowed || resp.Error.Code != "METHOD_NOT_SUPPORTED" {
		t.Errorf("status = %d, error = %+v", status, resp.Error)
	}

	status, resp = env.do(t, http.MethodGet, "nope.nothing", nil, true)
	if status != http.StatusNotFound || resp.Error.Code != "NOT_FOUND" {
		t.Errorf("status = %d, error = %+v", status, resp.Error)
	}
}

func TestConversationFlow(t *testing.T) {
	env := newTestEnv(t)

	_, created := env.do(t, http.MethodPost, "chat.createConversation", map[string]string{}, true)
	var conv conversationCreatedResponse
	json.Unmarshal(created.Result.Data, &conv)
	if conv.ConversationID == nil {
		t.Fatal("Expected conversationId")
	}
	convID := *conv.ConversationID

	status, sent := env.do(t, http.MethodPost, "chat.sendMessage", map[string]any{"conversationId": convID, "query": "Como funciona o Pix?"}, true)
	if status != http.StatusOK {
		t.Fatalf("sendMessage status = %d, error = %+v", status, sent.Error)
	}
	var turn struct {
		UserMessage db.Message `json:"userMessage"`
		BotMessage  db.Message `json:"botMessage"`
	}
	json.Unmarshal(sent.Result.Data, &turn)
	if turn.BotMessage.Content != "mock answer" || turn.BotMessage.Sender != db.SenderBot {
		t.Errorf("bot message = %+v", turn.BotMessage)
	}

	_, listed := env.do(t, http.MethodGet, "chat.getMessages", map[string]any{"conversationId": convID}, true)
	var msgs []db.Message
	json.Unmarshal(listed.Result.Data, &msgs)
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}

	status, rated := env.do(t, http.MethodPost, "chat.rateMessage", map[string]any{"messageId": turn.BotMessage.ID, "rating": "positive"}, true)
	if status != http.StatusOK || string(rated.Result.Data) != `{"success":true}` {
		t.Errorf("rateMessage status = %d, data = %s", status, rated.Result.Data)
	}

	_, conversations := env.do(t, http.MethodGet, "chat.getConversations", nil, true)
	var convs []db.Conversation
	json.Unmarshal(conversations.Result.Data, &convs)
	if len(convs) != 1 || convs[0].Title != "New conversation" {
		t.Errorf("conversations = %+v", convs)
	}
}

func TestGetMessages_OtherUsersConversation(t *testing.T) {
	env := newTestEnv(t)
	foreign, _ := env.store.CreateConversation(999, "someone else")

	status, resp := env.do(t, http.MethodGet, "chat.getMessages", map[string]any{"conversationId": foreign.ID}, true)
	if status != http.StatusNotFound || resp.Error.Code != "NOT_FOUND" {
		t.Errorf("status = %d, error = %+v; want 404", status, resp.Error)
	}
}

func TestAskAI(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.do(t, http.MethodPost, "chat.askAI", map[string]any{
		"query":        "Qual o horário?",
		"systemPrompt": "Seja breve.",
		"conversationHistory": []map[string]string{
			{"role": "user", "content": "oi"},
			{"role": "assistant", "content": "olá"},
		},
	}, true)
	if status != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", status, resp.Error)
	}
	if string(resp.Result.Data) != `{"answer":"mock answer"}` {
		t.Errorf("data = %s", resp.Result.Data)
	}
	if len(env.completer.Calls) != 1 || len(env.completer.Calls[0]) != 4 {
		t.Errorf("completion calls = %+v", env.completer.Calls)
	}
}

func TestAskAI_ClientSystemPrompt(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.do(t, http.MethodPost, "bankAccount.create", map[string]string{"accountName": "Ana", "accountNumber": "12345"}, true)
	if status != http.StatusOK {
		t.Fatalf("bankAccount.create status = %d, error = %+v", status, resp.Error)
	}

	clientPrompt := "Você é o assistente Mango Pix.\n\n👤 Informações do cliente:\n- Nome: Ana\n- Número da conta: 12345\n"
	status, resp = env.do(t, http.MethodPost, "chat.askAI", map[string]any{"query": "oi", "systemPrompt": clientPrompt}, true)
	if status != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", status, resp.Error)
	}

	if len(env.completer.Calls) != 1 {
		t.Fatalf("Expected 1 completion call, got %d", len(env.completer.Calls))
	}
	system := env.completer.Calls[0][0].Content
	if system != clientPrompt {
		t.Errorf("system turn = %q, want the client prompt unchanged", system)
	}
	if strings.Contains(system, "IDENTIDADE") {
		t.Error("built-in prompt should be replaced by the client prompt")
	}
	if n := strings.Count(system, "Informações do cliente"); n != 1 {
		t.Errorf("account facts blocks = %d, want 1", n)
	}
}

func TestBankAccountAndSearchHistory(t *testing.T) {
	env := newTestEnv(t)

	_, none := env.do(t, http.MethodGet, "bankAccount.get", nil, true)
	if string(none.Result.Data) != "null" {
		t.Errorf("bankAccount.get before create = %s, want null", none.Result.Data)
	}

	env.do(t, http.MethodPost, "bankAccount.create", map[string]string{"accountName": "Ana", "accountNumber": "123"}, true)
	_, got := env.do(t, http.MethodGet, "bankAccount.get", nil, true)
	var account db.BankAccount
	json.Unmarshal(got.Result.Data, &account)
	if account.AccountNumber != "123" {
		t.Errorf("account = %+v", account)
	}

	for _, q := range []string{"a", "b", "c", "d", "e", "f"} {
		env.do(t, http.MethodPost, "searchHistory.add", map[string]string{"query": q}, true)
	}
	_, recent := env.do(t, http.MethodGet, "searchHistory.getRecent", nil, true)
	var entries []db.SearchEntry
	json.Unmarshal(recent.Result.Data, &entries)
	if len(entries) != 5 || entries[0].Query != "f" {
		t.Errorf("recent = %+v", entries)
	}
}
