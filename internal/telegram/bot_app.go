package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/abakusuz/paybot/internal/bridge"
	"github.com/abakusuz/paybot/internal/config"
	"github.com/abakusuz/paybot/internal/domain"
	"github.com/abakusuz/paybot/internal/ports"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type BotApp struct {
	bot      *tgbotapi.BotAPI
	cfg      *config.Config
	subs     ports.SubscriptionService
	receipts *domain.ReceiptService
	bridge   *bridge.Bridge
}

func NewBotApp(
	cfg *config.Config,
	subs ports.SubscriptionService,
	receipts *domain.ReceiptService,
	br *bridge.Bridge,
) (*BotApp, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	log.Printf("[bot_app] ready: @%s", bot.Self.UserName)

	return &BotApp{
		bot:      bot,
		cfg:      cfg,
		subs:     subs,
		receipts: receipts,
		bridge:   br,
	}, nil
}

// HandleUpdate is the single entry point for update processing; it always
// runs on the bridge worker, never on an HTTP goroutine.
func (app *BotApp) HandleUpdate(ctx context.Context, upd tgbotapi.Update) error {
	switch {
	case upd.Message != nil:
		return app.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		return app.handleCallback(ctx, upd.CallbackQuery)
	}
	return nil
}

// SetWebhook points Telegram at baseURL/tg/webhook, dropping pending
// updates first.
func (app *BotApp) SetWebhook(baseURL string) error {
	if _, err := app.bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	wh, err := tgbotapi.NewWebhook(strings.TrimRight(baseURL, "/") + "/tg/webhook")
	if err != nil {
		return err
	}
	if _, err := app.bot.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	log.Printf("[bot_app] webhook set to %s/tg/webhook", strings.TrimRight(baseURL, "/"))
	return nil
}

// RunPolling is the fallback when no public URL is configured. Updates are
// still funneled through the bridge so handlers never run here.
func (app *BotApp) RunPolling() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := app.bot.GetUpdatesChan(u)

	for update := range updates {
		update := update
		if err := app.bridge.SubmitAsync(func(ctx context.Context) error {
			return app.HandleUpdate(ctx, update)
		}); err != nil {
			log.Printf("[bot_app] submit: %v", err)
		}
	}
}
