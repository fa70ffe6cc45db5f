package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/dearvoice/types"
)

func newVapiTestClient(t *testing.T, handler http.HandlerFunc) *VapiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewVapiClient(Config{APIKey: "vk", BaseURL: srv.URL})
}

func TestVapiClient_CreateAssistant(t *testing.T) {
	c := newVapiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/assistant", r.URL.Path)
		assert.Equal(t, "Bearer vk", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, "Grandma", raw["name"])
		assert.Equal(t, "assistant-speaks-first", raw["firstMessageMode"])
		voice := raw["voice"].(map[string]any)
		assert.Equal(t, "cartesia", voice["provider"])
		assert.Equal(t, "v1", voice["voiceId"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"a1","name":"Grandma","orgId":"org"}`))
	})

	req := DefaultTemplate().Build("Grandma", "Hello!", "", VoiceConfig{Provider: "cartesia", VoiceID: "v1"})
	a, err := c.CreateAssistant(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID)
	assert.JSONEq(t, `{"id":"a1","name":"Grandma","orgId":"org"}`, string(a.Raw))
}

func TestVapiClient_CreateAssistantErrors(t *testing.T) {
	t.Run("upstream status propagated", func(t *testing.T) {
		c := newVapiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":["voice.voiceId must be a string"]}`))
		})
		_, err := c.CreateAssistant(context.Background(), &AssistantRequest{})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, types.UpstreamStatus(err))
		assert.Contains(t, types.UpstreamDetails(err), "voiceId")
	})

	t.Run("missing id fails loudly", func(t *testing.T) {
		c := newVapiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"name":"Grandma"}`))
		})
		_, err := c.CreateAssistant(context.Background(), &AssistantRequest{})
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, types.UpstreamStatus(err))
	})

	t.Run("invalid json", func(t *testing.T) {
		c := newVapiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		})
		_, err := c.CreateAssistant(context.Background(), &AssistantRequest{})
		assert.Error(t, err)
	})
}

func TestVapiClient_GetAssistant(t *testing.T) {
	c := newVapiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/assistant/a-42", r.URL.Path)
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.Write([]byte(`{"id":"a-42","name":"Nurse Assistant Hub","voice":{"provider":"azure"}}`))
	})

	a, err := c.GetAssistant(context.Background(), "a-42")
	require.NoError(t, err)
	assert.Equal(t, "Nurse Assistant Hub", a.Name)
	assert.Contains(t, string(a.Raw), `"azure"`)
}

func TestVapiClient_GetAssistantNotFound(t *testing.T) {
	c := newVapiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Couldn't Get Assistant. Assistant Not Found."}`))
	})

	_, err := c.GetAssistant(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, types.UpstreamStatus(err))
}

func TestVapiClient_Conversation(t *testing.T) {
	var paths []string
	c := newVapiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/assistant/a1/conversation" {
			var req ConversationRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "a1", req.AssistantID)
			assert.Equal(t, "user", req.Message.Role)
			assert.Equal(t, "Hello, can you assist me?", req.Message.Content)
			w.Write([]byte(`{"status":"started"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	out, err := c.InitiateConversation(context.Background(), &ConversationRequest{
		AssistantID: "a1",
		Message:     Message{Role: "user", Content: "Hello, can you assist me?"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"started"}`, string(out))

	out, err = c.EndConversation(context.Background(), "a1")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(out))

	assert.Equal(t, []string{"/assistant/a1/conversation", "/assistant/a1/conversation/end"}, paths)
}

func TestVapiClient_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewVapiClient(Config{BaseURL: srv.URL})
	_, err := c.GetAssistant(context.Background(), "a1")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, types.UpstreamStatus(err))
}
