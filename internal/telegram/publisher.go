package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Publisher delivers study artifacts to one Telegram chat: images as
// photos, everything else as documents.
type Publisher struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

// NewPublisher connects to the Bot API. An empty endpoint uses the public
// Telegram API; otherwise it is a format string like tgbotapi.APIEndpoint.
func NewPublisher(token string, chatID int64, endpoint string, logger zerolog.Logger) (*Publisher, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, err
	}
	l := logger.With().Str("component", "telegram").Logger()
	l.Info().Str("bot", api.Self.UserName).Int64("chat_id", chatID).Msg("bot initialized")
	return &Publisher{api: api, chatID: chatID, log: l}, nil
}

// Publish sends a caption message followed by each file in order.
func (p *Publisher) Publish(ctx context.Context, caption string, files []string) error {
	if caption != "" {
		if _, err := p.api.Send(tgbotapi.NewMessage(p.chatID, caption)); err != nil {
			return fmt.Errorf("send caption: %w", err)
		}
	}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := filepath.Base(path)
		var msg tgbotapi.Chattable
		if strings.EqualFold(filepath.Ext(path), ".png") {
			photo := tgbotapi.NewPhoto(p.chatID, tgbotapi.FilePath(path))
			photo.Caption = name
			msg = photo
		} else {
			doc := tgbotapi.NewDocument(p.chatID, tgbotapi.FilePath(path))
			doc.Caption = name
			msg = doc
		}
		if _, err := p.api.Send(msg); err != nil {
			return fmt.Errorf("send %s: %w", name, err)
		}
		p.log.Debug().Str("file", name).Msg("sent")
	}
	return nil
}
