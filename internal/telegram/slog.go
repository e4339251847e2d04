package telegram

import (
	"context"
	"log/slog"
	"sync"
)

var _ slog.Handler = &SlogHandler{}

// SlogHandler passes records to next and forwards warnings and errors to
// the admin chat.
type SlogHandler struct {
	bot  *Bot
	next slog.Handler
	mu   *sync.Mutex
}

func NewSlogHandler(bot *Bot, next slog.Handler) *SlogHandler {
	return &SlogHandler{
		bot:  bot,
		next: next,
		mu:   &sync.Mutex{},
	}
}

func (h *SlogHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= slog.LevelWarn || h.next.Enabled(ctx, l)
}

func (h *SlogHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		h.mu.Lock()
		err := h.bot.BroadcastSlogRecord(ctx, r)
		h.mu.Unlock()
		if err != nil {
			// the record still reaches next
			r.AddAttrs(slog.String("telegram_error", err.Error()))
		}
	}
	if !h.next.Enabled(ctx, r.Level) {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SlogHandler{bot: h.bot, next: h.next.WithAttrs(attrs), mu: h.mu}
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	return &SlogHandler{bot: h.bot, next: h.next.WithGroup(name), mu: h.mu}
}
