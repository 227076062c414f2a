package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/abakusuz/paybot/internal/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (app *BotApp) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	if len(m.Photo) > 0 {
		return app.handleReceipt(ctx, m)
	}

	if m.IsCommand() {
		switch m.Command() {
		case "start":
			msg := tgbotapi.NewMessage(m.Chat.ID, "Assalomu alaykum!\nObuna bo'lish uchun tugmani bosing 👇")
			msg.ReplyMarkup = subscribeKeyboard()
			_, err := app.bot.Send(msg)
			return err
		case "status":
			return app.sendStatus(ctx, m)
		}
	}
	return nil
}

func (app *BotApp) sendStatus(ctx context.Context, m *tgbotapi.Message) error {
	uid := strconv.FormatInt(m.From.ID, 10)

	st, err := app.subs.Status(ctx, uid)
	if err != nil {
		log.Printf("[status] uid=%s: %v", uid, err)
	}

	text := "🚫 Obunangiz faol emas."
	if st.Active {
		text = fmt.Sprintf("✅ Obunangiz faol: %d kun qoldi.", st.DaysLeft)
	}
	msg := tgbotapi.NewMessage(m.Chat.ID, text)
	msg.ReplyMarkup = subscribeKeyboard()
	_, err = app.bot.Send(msg)
	return err
}

func (app *BotApp) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	switch data := q.Data; {
	case data == "subscribe":
		app.answer(q.ID, "")
		edit := tgbotapi.NewEditMessageTextAndMarkup(
			q.Message.Chat.ID, q.Message.MessageID,
			"Nechi oylik obuna olmoqchisiz?",
			monthKeyboard(),
		)
		_, err := app.bot.Send(edit)
		return err

	case strings.HasPrefix(data, "month_"):
		months, err := strconv.Atoi(strings.TrimPrefix(data, "month_"))
		if err != nil {
			return nil
		}
		app.answer(q.ID, "")
		text := fmt.Sprintf(
			"📅 %d oylik obuna narxi: %s so'm\n\nKarta: `%s`\nEgasi: %s",
			months, formatSum(months*monthPrice), app.cfg.CardNumber, app.cfg.CardName,
		)
		edit := tgbotapi.NewEditMessageTextAndMarkup(
			q.Message.Chat.ID, q.Message.MessageID,
			text,
			priceKeyboard(),
		)
		edit.ParseMode = tgbotapi.ModeMarkdown
		_, err = app.bot.Send(edit)
		return err

	case data == "copy_card":
		msg := tgbotapi.NewMessage(
			q.Message.Chat.ID,
			fmt.Sprintf("💳 Karta raqami: `%s`\n\nEndi to'lov chekini yuboring.", app.cfg.CardNumber),
		)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.ReplyMarkup = sendReceiptKeyboard()
		if _, err := app.bot.Send(msg); err != nil {
			return err
		}
		_, err := app.bot.Request(tgbotapi.NewCallbackWithAlert(q.ID,
			"Karta raqamini xabardan oson nusxalashingiz mumkin"))
		return err

	case data == "send_receipt":
		app.answer(q.ID, "")
		_, err := app.bot.Send(tgbotapi.NewMessage(q.Message.Chat.ID,
			"📤 To'lov chekingizni shu yerga rasm sifatida yuboring"))
		return err
	}
	return nil
}

// handleReceipt forwards a payment screenshot to the administrator and, when
// a bucket is configured, archives it.
func (app *BotApp) handleReceipt(ctx context.Context, m *tgbotapi.Message) error {
	photo := m.Photo[len(m.Photo)-1]
	uid := strconv.FormatInt(m.From.ID, 10)
	fullName := strings.TrimSpace(m.From.FirstName + " " + m.From.LastName)

	rc := domain.Receipt{
		UID:         uid,
		FullName:    fullName,
		FileID:      photo.FileID,
		ContentType: "image/jpeg",
	}

	if url, err := app.bot.GetFileDirectURL(photo.FileID); err != nil {
		log.Printf("[receipt] file url: %v", err)
	} else if resp, err := http.Get(url); err != nil {
		log.Printf("[receipt] download: %v", err)
	} else {
		defer resp.Body.Close()
		rc.Body = resp.Body
		rc.Size = resp.ContentLength
	}

	if err := app.receipts.Submit(ctx, rc); err != nil {
		if _, sendErr := app.bot.Send(tgbotapi.NewMessage(m.Chat.ID,
			"❌ Chekni yuborishda xatolik yuz berdi, qayta urinib ko'ring.")); sendErr != nil {
			log.Printf("[receipt] reply: %v", sendErr)
		}
		return err
	}

	msg := tgbotapi.NewMessage(m.Chat.ID, "✅ Chekingiz adminga yuborildi.")
	msg.ReplyMarkup = repeatKeyboard()
	_, err := app.bot.Send(msg)
	return err
}

func (app *BotApp) answer(id, text string) {
	if _, err := app.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		log.Printf("[bot_app] callback answer: %v", err)
	}
}
