package bot

import (
	"Curator/ai"
	"Curator/core"
	"Curator/lib/sl"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

const errorResponse = "Sorry, I could not describe this image. Please try again later."

const historyLimit = 10

type TgBot struct {
	conf        *core.Config
	log         *slog.Logger
	api         *tgbotapi.BotAPI
	captions    core.CaptionService
	botUsername string
	stop        chan struct{}
}

func NewTgBot(conf *core.Config, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		conf:        conf,
		log:         log.With(sl.Module("tgbot")),
		botUsername: conf.Username,
		stop:        make(chan struct{}),
	}

	api, err := tgbotapi.NewBotAPI(conf.TelegramApiKey)
	if err != nil {
		return nil, err
	}
	tgBot.api = api

	return tgBot, nil
}

// SetCaptions set caption service
func (t *TgBot) SetCaptions(captions core.CaptionService) {
	t.captions = captions
}

func (t *TgBot) Start() error {
	// Set up an update configuration
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	// Start listening for updates
	updates, err := t.api.GetUpdatesChan(u)
	if err != nil {
		return err
	}

	for {
		select {
		case <-t.stop:
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			t.handleMessage(update.Message)
		}
	}
}

func (t *TgBot) Stop() {
	close(t.stop)
}

func (t *TgBot) handleMessage(incoming *tgbotapi.Message) {
	chat := incoming.Chat

	if incoming.IsCommand() {
		t.handleCommand(chat.ID, incoming.Command())
		return
	}

	if incoming.Photo == nil && incoming.Document == nil {
		if chat.IsPrivate() {
			t.plainResponse(chat.ID, "Send me a photo or an image file, and I will write a gallery description for it.")
		}
		return
	}

	t.log.With(
		sl.User(chat.ID),
		slog.String("from", incoming.From.UserName),
	).Info("incoming image")

	go t.SendDescription(chat.ID, incoming)
}

func (t *TgBot) handleCommand(chatId int64, command string) {
	switch command {
	case "start", "help":
		text := "I describe images for your gallery.\n"
		text += "Send a photo or an image file, and I will reply with a creative title and a description.\n"
		text += "/history - show titles of recent descriptions\n"
		text += "/clear - forget your description history\n"
		t.plainResponse(chatId, text)
	case "history":
		lines := t.captions.History(chatId, historyLimit)
		if len(lines) == 0 {
			t.plainResponse(chatId, "No descriptions yet. Send me an image.")
			return
		}
		t.plainResponse(chatId, strings.Join(lines, "\n"))
	case "clear":
		t.captions.ClearHistory(chatId)
		t.plainResponse(chatId, "History cleared.")
	}
}

// SendDescription downloads the image from the message, generates a
// description and replies with it. The chat action keeps the user
// informed while the model works.
func (t *TgBot) SendDescription(chatId int64, incoming *tgbotapi.Message) {
	stopTicker := make(chan struct{})
	defer close(stopTicker)

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		t.sendChatAction(chatId, "upload_photo")
		for {
			select {
			case <-ticker.C:
				t.sendChatAction(chatId, "upload_photo")
			case <-stopTicker:
				return
			}
		}
	}()

	image, mimeType, titleHint, err := t.downloadImage(incoming)
	if err != nil {
		// the describe call is never made when the source is unreadable
		t.log.With(sl.User(chatId)).Error("downloading image", sl.Err(err))
		t.plainResponse(chatId, errorResponse)
		return
	}

	description, err := t.captions.DescribeImage(chatId, image, mimeType, titleHint)
	if err != nil {
		t.log.With(sl.User(chatId)).Error("describing image", sl.Err(err))
		t.plainResponse(chatId, errorResponse)
		return
	}

	t.plainResponse(chatId, formatReply(description))
}

// formatReply renders the embedded title on its own line when present
func formatReply(description string) string {
	title, body, ok := ai.ExtractTitle(description)
	if !ok {
		return description
	}
	return title + "\n\n" + body
}

// downloadImage returns the image bytes, mime type and a title hint
// derived from the file name
func (t *TgBot) downloadImage(message *tgbotapi.Message) ([]byte, string, string, error) {
	if message.Document != nil {
		doc := message.Document
		if !strings.HasPrefix(doc.MimeType, "image/") {
			return nil, "", "", fmt.Errorf("unsupported document type: %s", doc.MimeType)
		}
		data, err := t.downloadFile(doc.FileID)
		if err != nil {
			return nil, "", "", err
		}
		return data, doc.MimeType, doc.FileName, nil
	}

	if message.Photo != nil && len(*message.Photo) > 0 {
		// the last photo size is the largest
		sizes := *message.Photo
		best := sizes[len(sizes)-1]
		data, err := t.downloadFile(best.FileID)
		if err != nil {
			return nil, "", "", err
		}
		hint := fmt.Sprintf("photo_%s.jpg", time.Now().Format("20060102_150405"))
		return data, "image/jpeg", hint, nil
	}

	return nil, "", "", errors.New("no image in message")
}

func (t *TgBot) downloadFile(fileID string) ([]byte, error) {
	url, err := t.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolving file: %v", err)
	}

	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("downloading file: %v", err)
	}
	defer func(Body io.ReadCloser) {
		err = Body.Close()
		if err != nil {
			t.log.Error("closing response body", sl.Err(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading file: %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

func (t *TgBot) sendChatAction(chatId int64, action string) {
	msg := tgbotapi.NewChatAction(chatId, action)
	_, err := t.api.Send(msg)
	if err != nil {
		t.log.Error("sending chat action", sl.Err(err))
	}
}

func (t *TgBot) plainResponse(chatId int64, text string) {
	// Send the response back to the user
	msg := tgbotapi.NewMessage(chatId, text)
	_, err := t.api.Send(msg)
	if err != nil {
		t.log.Error("sending message", sl.Err(err))
	}
}
