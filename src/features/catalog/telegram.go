package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramHandler handles Telegram commands for the catalog feature
type TelegramHandler struct {
	service  *Service
	resolver *Resolver
}

// NewTelegramHandler creates a new Telegram handler for the catalog feature.
// Names resolved for the bot are shared by every chat.
func NewTelegramHandler(service *Service) *TelegramHandler {
	return &TelegramHandler{service: service, resolver: service.NewResolver()}
}

// HandleCommand processes catalog Telegram commands
func (h *TelegramHandler) HandleCommand(bot *tgbotapi.BotAPI, chatID int64, command string, args string) error {
	switch command {
	case "random":
		return h.handleRandom(bot, chatID, strings.TrimSpace(args))
	case "genres":
		return h.handleGenres(bot, chatID)
	default:
		_, err := bot.Send(tgbotapi.NewMessage(chatID, "❌ Unknown catalog command. Use /random [search] or /genres"))
		return err
	}
}

// GetCommands returns the available commands for this handler
func (h *TelegramHandler) GetCommands() map[string]string {
	return map[string]string{
		"random": "Pick a random record (/random or /random <search>)",
		"genres": "List the genres in the collection",
	}
}

func (h *TelegramHandler) handleRandom(bot *tgbotapi.BotAPI, chatID int64, search string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	q := DefaultQuery()
	q.SearchTerm = search
	if search != "" {
		if err := h.service.PrefetchAll(ctx, h.resolver); err != nil {
			return err
		}
	}
	picked, err := h.service.RandomPick(ctx, h.resolver, q)
	if errors.Is(err, ErrNoEligibleRecord) {
		_, err = bot.Send(tgbotapi.NewMessage(chatID, "🤷 No records match your search"))
		return err
	}
	if err != nil {
		return err
	}

	card := Card(picked)
	var text strings.Builder
	fmt.Fprintf(&text, "*🎲 %s*\n%s · %s", escape(card.Name), escape(card.Artist), escape(card.Year))
	fmt.Fprintf(&text, "\n_%s_", escape(card.Genre))
	if card.Spotify != "" {
		fmt.Fprintf(&text, "\n[Spotify](%s)", card.Spotify)
	}
	if card.AppleMusic != "" {
		fmt.Fprintf(&text, "\n[Apple Music](%s)", card.AppleMusic)
	}

	if card.CoverURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(card.CoverURL))
		photo.Caption = text.String()
		photo.ParseMode = tgbotapi.ModeMarkdown
		if _, err := bot.Send(photo); err == nil {
			return nil
		}
	}
	msg := tgbotapi.NewMessage(chatID, text.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err = bot.Send(msg)
	return err
}

func (h *TelegramHandler) handleGenres(bot *tgbotapi.BotAPI, chatID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	genres, err := h.service.Genres(ctx)
	if err != nil {
		return err
	}
	if len(genres) == 0 {
		_, err = bot.Send(tgbotapi.NewMessage(chatID, "No genres yet"))
		return err
	}
	var text strings.Builder
	text.WriteString("*🏷 Genres*\n")
	for _, g := range genres {
		fmt.Fprintf(&text, "\n• %s", escape(g.Name))
	}
	msg := tgbotapi.NewMessage(chatID, text.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err = bot.Send(msg)
	return err
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escape makes text safe inside legacy Markdown messages.
func escape(text string) string {
	return markdownEscaper.Replace(text)
}
