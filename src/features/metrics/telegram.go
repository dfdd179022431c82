package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramHandler answers the /stats bot command.
type TelegramHandler struct {
	service *Service
}

// NewTelegramHandler creates a new Telegram handler for the metrics feature
func NewTelegramHandler(service *Service) *TelegramHandler {
	return &TelegramHandler{service: service}
}

// HandleCommand replies with the collection overview.
func (h *TelegramHandler) HandleCommand(bot *tgbotapi.BotAPI, chatID int64, command string, args string) error {
	if command != "stats" {
		return fmt.Errorf("unknown metrics command %q", command)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	overview, err := h.service.GetOverview(ctx)
	if err != nil {
		return err
	}

	var text strings.Builder
	fmt.Fprintf(&text, "*📊 Collection*\n\nRecords: %d\nFavorites: %d\nGenres: %d\n", overview.TotalRecords, overview.LikedRecords, overview.TotalGenres)
	if len(overview.DecadeCounts) > 0 {
		text.WriteString("\n*By decade*\n")
		for _, m := range overview.DecadeCounts {
			fmt.Fprintf(&text, "%s: %d\n", m.Key, m.Value)
		}
	}
	msg := tgbotapi.NewMessage(chatID, text.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err = bot.Send(msg)
	return err
}

// GetCommands returns the available commands for this handler
func (h *TelegramHandler) GetCommands() map[string]string {
	return map[string]string{
		"stats": "Show collection statistics",
	}
}
