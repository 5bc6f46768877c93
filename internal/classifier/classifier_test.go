package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adedotun019/EventSense-AI/internal/config"
)

func TestHuggingFace_DisabledWithoutToken(t *testing.T) {
	h := NewHuggingFace(config.ClassifierConfig{APIURL: "http://unused.invalid"})

	assert.False(t, h.Enabled())

	label, err := h.Classify(context.Background(), "some text")
	require.NoError(t, err)
	assert.Empty(t, label)
}

func TestHuggingFace_PicksTopScoreAndLowercases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer hf-token", r.Header.Get("Authorization"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "the crowd went wild", req["inputs"])

		fmt.Fprint(w, `[[
			{"label": "Neutral", "score": 0.1},
			{"label": "JOY", "score": 0.85},
			{"label": "surprise", "score": 0.05}
		]]`)
	}))
	defer server.Close()

	h := NewHuggingFace(config.ClassifierConfig{APIToken: "hf-token", APIURL: server.URL})
	require.True(t, h.Enabled())

	label, err := h.Classify(context.Background(), "the crowd went wild")
	require.NoError(t, err)
	assert.Equal(t, "joy", label)
}

func TestHuggingFace_EmptyPredictions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	h := NewHuggingFace(config.ClassifierConfig{APIToken: "t", APIURL: server.URL})

	label, err := h.Classify(context.Background(), "text")
	require.NoError(t, err)
	assert.Empty(t, label)
}

func TestHuggingFace_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	h := NewHuggingFace(config.ClassifierConfig{APIToken: "t", APIURL: server.URL})

	_, err := h.Classify(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHuggingFace_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "unexpected shape"}`)
	}))
	defer server.Close()

	h := NewHuggingFace(config.ClassifierConfig{APIToken: "t", APIURL: server.URL})

	_, err := h.Classify(context.Background(), "text")
	require.Error(t, err)
}
