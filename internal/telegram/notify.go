package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// NotifyReceipt sends the screenshot to the administrator chat with the
// sender's name, then the uid as a separate copyable message.
func (app *BotApp) NotifyReceipt(ctx context.Context, uid, fullName, fileID, archiveURL string) error {
	if app.cfg.AdminID == 0 {
		return fmt.Errorf("ADMIN_ID is not configured")
	}

	caption := fmt.Sprintf("💳 Yangi to'lov!\n👤 %s", fullName)
	if archiveURL != "" {
		caption += "\n🗂 " + archiveURL
	}

	photo := tgbotapi.NewPhoto(app.cfg.AdminID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	if _, err := app.bot.Send(photo); err != nil {
		return fmt.Errorf("forward receipt: %w", err)
	}

	idMsg := tgbotapi.NewMessage(app.cfg.AdminID, fmt.Sprintf("🆔 Foydalanuvchi ID: `%s`", uid))
	idMsg.ParseMode = tgbotapi.ModeMarkdown
	_, err := app.bot.Send(idMsg)
	return err
}
