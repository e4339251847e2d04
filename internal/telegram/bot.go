package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/studydash/internal/dashboard"
	"github.com/studydash/internal/profiles"
)

var ErrNoChats = errors.New("no chats linked")

type Bot struct {
	api           *tgbotapi.BotAPI
	store         *Store
	profilesStore *profiles.Store
	dashboards    *dashboard.Factory
	adminChatID   int64
}

func NewBot(
	store *Store,
	profilesStore *profiles.Store,
	dashboards *dashboard.Factory,
	token string,
	adminChatID int64,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:           api,
		store:         store,
		profilesStore: profilesStore,
		dashboards:    dashboards,
		adminChatID:   adminChatID,
	}, nil
}

func (b *Bot) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) Broadcast(ctx context.Context, message string) error {
	chats, err := b.store.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}
	for _, chat := range chats {
		if err := b.send(chat.ID, message); err != nil {
			return err
		}
	}
	return nil
}

// Notify sends text to every chat linked to the profile.
func (b *Bot) Notify(ctx context.Context, profileID profiles.ID, text string) error {
	chats, err := b.store.ListChatsByProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}
	if len(chats) == 0 {
		return ErrNoChats
	}
	for _, chat := range chats {
		if err := b.send(chat.ID, text); err != nil {
			return err
		}
	}
	return nil
}

// BroadcastSlogRecord forwards a log record to the admin chat, if any.
func (b *Bot) BroadcastSlogRecord(_ context.Context, r slog.Record) error {
	if b.adminChatID == 0 {
		return nil
	}
	return b.send(b.adminChatID, formatRecord(r))
}

func formatRecord(r slog.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", r.Level, r.Message)
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&sb, "\n%s=%v", a.Key, a.Value)
		return true
	})
	return sb.String()
}

func (b *Bot) Listen(ctx context.Context) error {
	offset, err := b.store.GetUpdatesOffset(ctx)
	if err != nil {
		return fmt.Errorf("get updates offset: %w", err)
	}
	updates := b.api.GetUpdatesChan(tgbotapi.UpdateConfig{Offset: offset, Timeout: 60})
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			slog.InfoContext(ctx, "stopping listening for telegram updates")
			return nil
		case update := <-updates:
			if update.Message != nil && update.Message.IsCommand() {
				reply, err := b.handleCommand(ctx, update.Message)
				if err != nil {
					slog.ErrorContext(ctx, "handle command", "command", update.Message.Command(), "error", err)
				} else if reply != "" {
					if err := b.send(update.Message.Chat.ID, reply); err != nil {
						slog.ErrorContext(ctx, "reply", "error", err)
					}
				}
			}

			if err := b.store.SetUpdatesOffset(ctx, update.UpdateID+1); err != nil {
				slog.ErrorContext(ctx, "set updates offset", "error", err)
			}
		}
	}
}

// handleCommand returns the reply to a command, empty for commands that
// need none.
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) (string, error) {
	switch message.Command() {
	case "start":
		return b.handleStart(ctx, message)
	case "stats":
		return b.handleStats(ctx, message)
	default:
		return "", nil
	}
}

const usage = "Send /start <registration number> <mobile number> to link this chat."

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) (string, error) {
	args := strings.Fields(message.CommandArguments())
	if len(args) != 2 {
		return usage, nil
	}
	profile, err := b.profilesStore.FindByRegistration(ctx, args[0])
	if errors.Is(err, profiles.ErrNotFound) {
		return "Unknown registration number or mobile number.", nil
	} else if err != nil {
		return "", fmt.Errorf("find profile: %w", err)
	}
	if profile.Mobile != args[1] {
		return "Unknown registration number or mobile number.", nil
	}
	chat := Chat{
		ID:        message.Chat.ID,
		FirstName: message.Chat.FirstName,
		ProfileID: profile.ID,
	}
	if err := b.store.InsertChat(ctx, &chat); err != nil {
		return "", fmt.Errorf("insert chat: %w", err)
	}
	slog.InfoContext(ctx, "telegram chat linked", "chat_id", chat.ID, "profile_id", profile.ID)
	return fmt.Sprintf("Linked to %s. Send /stats for your digest.", profile.Registration), nil
}

func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) (string, error) {
	chat, err := b.store.FindChat(ctx, message.Chat.ID)
	if errors.Is(err, ErrNotFound) || (err == nil && chat.ProfileID == "") {
		return usage, nil
	} else if err != nil {
		return "", fmt.Errorf("find chat: %w", err)
	}
	digest, err := b.dashboards.For(chat.ProfileID).Digest(ctx)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return digest, nil
}
