package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"soulcare/internal/config"
	"soulcare/internal/models"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpenAI serves canned chat completions and records the requests.
type fakeOpenAI struct {
	server   *httptest.Server
	replies  []string
	requests []openai.ChatCompletionRequest
	status   int
}

func newFakeOpenAI(t *testing.T, replies ...string) *fakeOpenAI {
	t.Helper()

	f := &fakeOpenAI{replies: replies, status: http.StatusOK}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if f.status != http.StatusOK {
			w.WriteHeader(f.status)
			return
		}

		reply := ""
		if len(f.requests) < len(f.replies) {
			reply = f.replies[len(f.requests)]
		}
		f.requests = append(f.requests, req)

		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func newTestClient(f *fakeOpenAI) *Client {
	return NewClient(
		config.LLMConfig{APIKey: "test-key", Model: "gpt-4", BaseURL: f.server.URL + "/v1"},
		config.ClinicConfig{Name: "SoulCare", TherapistName: "Mizo"},
		nil,
	)
}

func TestExtract(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := newFakeOpenAI(t, "Jane Doe")
		c := newTestClient(f)

		value, found, err := c.Extract(context.Background(), "my name is jane doe", "name")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "Jane Doe", value)

		require.Len(t, f.requests, 1)
		assert.Equal(t, "gpt-4", f.requests[0].Model)
		assert.Contains(t, f.requests[0].Messages[0].Content, "my name is jane doe")
		assert.Contains(t, f.requests[0].Messages[0].Content, "Extract the name")
	})

	t.Run("not found", func(t *testing.T) {
		f := newFakeOpenAI(t, "Not found")
		c := newTestClient(f)

		_, found, err := c.Extract(context.Background(), "huh?", "email")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("blank reply treated as not found", func(t *testing.T) {
		f := newFakeOpenAI(t, "   ")
		c := newTestClient(f)

		_, found, err := c.Extract(context.Background(), "huh?", "date")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("api error", func(t *testing.T) {
		f := newFakeOpenAI(t)
		f.status = http.StatusInternalServerError
		c := newTestClient(f)

		_, _, err := c.Extract(context.Background(), "hello", "name")
		assert.Error(t, err)
	})
}

func TestChatPrependsPersona(t *testing.T) {
	f := newFakeOpenAI(t, "I hear you. That sounds stressful.")
	c := newTestClient(f)

	reply, err := c.Chat(context.Background(), []models.ChatMessage{
		{Role: models.RoleUser, Content: "I feel anxious lately"},
	})
	require.NoError(t, err)
	assert.Equal(t, "I hear you. That sounds stressful.", reply)

	require.Len(t, f.requests, 1)
	msgs := f.requests[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Mizo")
	assert.Contains(t, msgs[0].Content, "SoulCare")
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[1].Role)
}

func TestEmailCopy(t *testing.T) {
	f := newFakeOpenAI(t, " Your Appointment Is Confirmed ", "Dear Jane, see you soon.")
	c := newTestClient(f)

	subject, body, err := c.EmailCopy(context.Background(), "Jane Doe", "2025-06-01", "10:00 AM - 11:00 AM")
	require.NoError(t, err)
	assert.Equal(t, "Your Appointment Is Confirmed", subject)
	assert.Equal(t, "Dear Jane, see you soon.", body)

	require.Len(t, f.requests, 2)
	assert.Contains(t, f.requests[0].Messages[0].Content, "subject line")
	assert.Contains(t, f.requests[1].Messages[0].Content, "Jane Doe")
	assert.Contains(t, f.requests[1].Messages[0].Content, "Mizo")
}
