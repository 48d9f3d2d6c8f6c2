package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinovahq/clinic-platform/pkg/logging"
)

type fakeLLM struct {
	answer     string
	err        error
	lastSystem string
	lastTurns  int
}

func (f *fakeLLM) Complete(_ context.Context, system string, messages []ChatMessage) (string, error) {
	f.lastSystem = system
	f.lastTurns = len(messages)
	return f.answer, f.err
}

func (f *fakeLLM) Close() error { return nil }

func testClinic() ClinicInfo {
	return ClinicInfo{
		Name:        "Clinova",
		OpeningHour: 8,
		ClosingHour: 18,
		SlotMinutes: 30,
		Specialties: []string{"Cardiology", "Dermatology"},
	}
}

func TestChatGroundsSystemPrompt(t *testing.T) {
	llm := &fakeLLM{answer: "We are open from 08:00 to 18:00."}
	svc := NewService(llm, testClinic(), nil)

	answer, err := svc.Chat(context.Background(), []ChatMessage{
		{Role: "user", Content: "What are your opening hours?"},
	})
	require.NoError(t, err)

	assert.Equal(t, "We are open from 08:00 to 18:00.", answer)
	assert.Contains(t, llm.lastSystem, "Clinova")
	assert.Contains(t, llm.lastSystem, "30-minute slots")
	assert.Contains(t, llm.lastSystem, "Cardiology")
}

func TestChatTruncatesHistory(t *testing.T) {
	llm := &fakeLLM{answer: "ok"}
	svc := NewService(llm, testClinic(), nil)

	messages := make([]ChatMessage, 0, 30)
	for i := 0; i < 30; i++ {
		messages = append(messages, ChatMessage{Role: "user", Content: "hello"})
	}
	_, err := svc.Chat(context.Background(), messages)
	require.NoError(t, err)
	assert.Equal(t, maxHistoryTurns, llm.lastTurns)
}

func TestChatHandlerOK(t *testing.T) {
	llm := &fakeLLM{answer: "You can book online."}
	h := NewHandler(NewService(llm, testClinic(), nil), logging.Default())

	body, _ := json.Marshal(ChatRequest{Messages: []ChatMessage{
		{Role: "user", Content: "How do I book?"},
	}})
	req := httptest.NewRequest(http.MethodPost, "/assistant/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Chat(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "You can book online.")
}

func TestChatHandlerRejectsEmpty(t *testing.T) {
	h := NewHandler(NewService(&fakeLLM{}, testClinic(), nil), logging.Default())

	body, _ := json.Marshal(ChatRequest{})
	req := httptest.NewRequest(http.MethodPost, "/assistant/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Chat(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandlerRejectsAssistantLast(t *testing.T) {
	h := NewHandler(NewService(&fakeLLM{}, testClinic(), nil), logging.Default())

	body, _ := json.Marshal(ChatRequest{Messages: []ChatMessage{
		{Role: "assistant", Content: "Hi, how can I help?"},
	}})
	req := httptest.NewRequest(http.MethodPost, "/assistant/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Chat(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandlerUpstreamFailure(t *testing.T) {
	h := NewHandler(NewService(&fakeLLM{err: errors.New("quota exceeded")}, testClinic(), nil), logging.Default())

	body, _ := json.Marshal(ChatRequest{Messages: []ChatMessage{
		{Role: "user", Content: "How do I book?"},
	}})
	req := httptest.NewRequest(http.MethodPost, "/assistant/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Chat(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
}
