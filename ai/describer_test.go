package ai

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"Curator/core"
	"Curator/holder"
	"Curator/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDescriber(apiURL string) (*Describer, *holder.HistoryManager) {
	conf := &core.Config{}
	conf.OpenAIApiKey = "test-key"
	conf.Model = "gpt-4o-mini"
	history := holder.NewHistoryManager(storage.NewMemoryStorage())
	d := NewDescriber(conf, testLogger(), history, storage.NewMemoryPreferencesStorage())
	d.apiURL = apiURL
	return d, history
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 10))))
	return buf.Bytes()
}

func TestDescriber_DescribeImage(t *testing.T) {
	var requestBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var err error
		requestBody, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"\n**Golden Hour**\nA warm gradient...\n "},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	d, history := newTestDescriber(server.URL)

	description, err := d.DescribeImage(1, testPNG(t), "image/png", "sunset.png")
	require.NoError(t, err)
	require.Equal(t, "**Golden Hour**\nA warm gradient...", description)

	require.Contains(t, string(requestBody), "data:image/png;base64,")
	require.Contains(t, string(requestBody), "sunset.png")
	require.Contains(t, string(requestBody), "double asterisks")

	captions := history.Recent(1, 0)
	require.Len(t, captions, 1)
	require.Equal(t, "Golden Hour", captions[0].Title)
	require.Equal(t, "sunset.png", captions[0].Source)
}

func TestDescriber_EmptyTitleHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"**Untamed**\nA study in motion."}}]}`))
	}))
	defer server.Close()

	d, _ := newTestDescriber(server.URL)

	description, err := d.DescribeImage(1, testPNG(t), "image/png", "")
	require.NoError(t, err)
	require.NotEmpty(t, description)
}

func TestDescriber_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  \n "}}]}`))
	}))
	defer server.Close()

	d, history := newTestDescriber(server.URL)

	_, err := d.DescribeImage(1, testPNG(t), "image/png", "sunset.png")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNoText)
	require.Contains(t, err.Error(), "No text returned")
	require.Empty(t, history.Recent(1, 0))
}

func TestDescriber_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	d, _ := newTestDescriber(server.URL)

	_, err := d.DescribeImage(1, testPNG(t), "image/png", "sunset.png")
	require.ErrorIs(t, err, ErrNoText)
}

func TestDescriber_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	}))
	defer server.Close()

	d, _ := newTestDescriber(server.URL)

	_, err := d.DescribeImage(1, testPNG(t), "image/png", "sunset.png")
	require.Error(t, err)
	require.Contains(t, err.Error(), "quota exceeded")
	require.Contains(t, err.Error(), "generation failed")
}

func TestDescriber_UnreadableImage(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	d, _ := newTestDescriber(server.URL)

	_, err := d.DescribeImage(1, nil, "image/png", "sunset.png")
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading image content")

	_, err = d.DescribeImage(1, testPNG(t), "", "sunset.png")
	require.Error(t, err)

	// no request must reach the provider
	require.Equal(t, 0, calls)
}

func TestDescriber_StylePreferencesInPrompt(t *testing.T) {
	var requestBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"**Тиша**\nМʼяке світло."}}]}`))
	}))
	defer server.Close()

	conf := &core.Config{}
	conf.OpenAIApiKey = "test-key"
	conf.Model = "gpt-4o-mini"
	prefs := storage.NewMemoryPreferencesStorage()
	require.NoError(t, prefs.SaveStyle(&storage.StylePreferences{
		UserId:   7,
		Language: "Ukrainian",
		Tone:     "poetic",
	}))

	d := NewDescriber(conf, testLogger(), holder.NewHistoryManager(storage.NewMemoryStorage()), prefs)
	d.apiURL = server.URL

	_, err := d.DescribeImage(7, testPNG(t), "image/png", "")
	require.NoError(t, err)
	require.Contains(t, string(requestBody), "Ukrainian")
	require.Contains(t, string(requestBody), "poetic")
}
