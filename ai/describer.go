package ai

import (
	"Curator/core"
	"Curator/holder"
	"Curator/lib/sl"
	"Curator/storage"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const chatCompletionsURL = "https://api.openai.com/v1/chat/completions"

// ErrNoText is returned when the model response carries no usable text
var ErrNoText = errors.New("No text returned")

type Describer struct {
	conf       *core.Config
	log        *slog.Logger
	history    *holder.HistoryManager
	prefs      storage.PreferencesStorage
	httpClient *http.Client
	apiURL     string
}

func NewDescriber(conf *core.Config, log *slog.Logger, history *holder.HistoryManager, prefs storage.PreferencesStorage) *Describer {
	return &Describer{
		conf:    conf,
		log:     log.With(sl.Module("describer")),
		history: history,
		prefs:   prefs,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		apiURL: chatCompletionsURL,
	}
}

// DescribeImage sends the image to the vision model and returns a
// gallery description with an embedded **title**. One round trip per
// call: no retries, no caching. Repeated calls with the same image may
// return different text.
func (d *Describer) DescribeImage(userId int64, image []byte, mimeType, titleHint string) (string, error) {
	if len(image) == 0 || mimeType == "" {
		err := errors.New("empty content or mime type")
		d.log.With(sl.User(userId)).Error("reading image content", sl.Err(err))
		return "", fmt.Errorf("reading image content: %v", err)
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))
	prompt := DescriptionPrompt(titleHint, d.userStyle(userId))

	request := NewVisionRequest(d.conf.Model, prompt, dataURI)
	jsonBytes, err := json.Marshal(request)
	if err != nil {
		d.log.Error("marshalling request", sl.Err(err))
		return "", fmt.Errorf("generation failed: %v", err)
	}

	req, err := http.NewRequest("POST", d.apiURL, strings.NewReader(string(jsonBytes)))
	if err != nil {
		d.log.Error("making request", sl.Err(err))
		return "", fmt.Errorf("generation failed: %v", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", d.conf.OpenAIApiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.log.With(sl.User(userId)).Error("calling vision model", sl.Err(err))
		return "", fmt.Errorf("generation failed: %v", err)
	}

	defer func(Body io.ReadCloser) {
		err = Body.Close()
		if err != nil {
			d.log.Error("closing response body", sl.Err(err))
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		d.log.Error("reading response body", sl.Err(err))
		return "", fmt.Errorf("generation failed: %v", err)
	}

	var chatCompletion ChatCompletion
	if err = json.Unmarshal(body, &chatCompletion); err != nil {
		d.log.Error("decoding response", sl.Err(err))
		return "", fmt.Errorf("generation failed: %v", err)
	}

	if chatCompletion.Error != nil && chatCompletion.Error.Message != "" {
		d.log.With(
			sl.User(userId),
			slog.String("type", chatCompletion.Error.Type),
		).Error("vision model error", sl.Err(errors.New(chatCompletion.Error.Message)))
		return "", fmt.Errorf("generation failed: %s", chatCompletion.Error.Message)
	}

	d.log.With(
		sl.User(userId),
		slog.String("model", chatCompletion.Model),
		slog.Int("choices", len(chatCompletion.Choices)),
	).Info("chat completion")

	if len(chatCompletion.Choices) == 0 {
		d.log.With(sl.User(userId)).Error("chat completion", sl.Err(ErrNoText))
		return "", fmt.Errorf("generation failed: %w", ErrNoText)
	}

	description := strings.TrimSpace(chatCompletion.Choices[0].Message.Content)
	if description == "" {
		d.log.With(sl.User(userId)).Error("chat completion", sl.Err(ErrNoText))
		return "", fmt.Errorf("generation failed: %w", ErrNoText)
	}

	d.recordCaption(userId, titleHint, mimeType, len(image), description)

	logText := description
	if len(logText) > 50 {
		logText = logText[:50] + "..."
	}
	d.log.With(
		sl.User(userId),
		slog.String("text", logText),
	).Info("generated description")

	return description, nil
}

// History returns the user's recent captions as display lines, newest first
func (d *Describer) History(userId int64, limit int) []string {
	captions := d.history.Recent(userId, limit)
	lines := make([]string, 0, len(captions))
	for _, c := range captions {
		title := c.Title
		if title == "" {
			title = "untitled"
		}
		lines = append(lines, fmt.Sprintf("%s — %s (%s)", title, c.Source, c.CreatedAt.Format("02 Jan 2006")))
	}
	return lines
}

func (d *Describer) ClearHistory(userId int64) {
	d.history.Clear(userId)
}

func (d *Describer) Close() error {
	return d.history.Close()
}

func (d *Describer) recordCaption(userId int64, source, mimeType string, size int, description string) {
	title, _, _ := ExtractTitle(description)
	d.history.Add(storage.Caption{
		UserId:      userId,
		Source:      source,
		MimeType:    mimeType,
		Size:        size,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now(),
	})
	if err := d.prefs.UpdateLastCaptionTime(userId); err != nil {
		d.log.With(sl.User(userId)).Error("updating last caption time", sl.Err(err))
	}
}

func (d *Describer) userStyle(userId int64) *storage.StylePreferences {
	style, err := d.prefs.GetStyle(userId)
	if err != nil {
		d.log.With(sl.User(userId)).Error("getting style preferences", sl.Err(err))
		return nil
	}
	return style
}
