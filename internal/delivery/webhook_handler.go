package delivery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/abakusuz/paybot/internal/bridge"
	"github.com/abakusuz/paybot/internal/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// maxUpdateBytes caps the webhook body; a Telegram update is far smaller.
const maxUpdateBytes = 10 << 10

// UpdateSink consumes decoded Telegram updates on the bridge worker.
type UpdateSink interface {
	HandleUpdate(ctx context.Context, upd tgbotapi.Update) error
}

type WebhookHandler struct {
	bridge *bridge.Bridge
	sink   UpdateSink
	log    *zap.SugaredLogger
}

func NewWebhookHandler(br *bridge.Bridge, sink UpdateSink, log *zap.SugaredLogger) *WebhookHandler {
	return &WebhookHandler{bridge: br, sink: sink, log: log}
}

// POST /tg/webhook
// The update is handed to the background worker fire-and-forget; the 200
// does not depend on what the handler does with it.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpdateBytes))
	if err != nil {
		metrics.WebhookUpdatesTotal.WithLabelValues("rejected").Inc()
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	var upd tgbotapi.Update
	if err := json.Unmarshal(body, &upd); err != nil {
		metrics.WebhookUpdatesTotal.WithLabelValues("rejected").Inc()
		h.log.Errorw("webhook decode failed", "err", err)
		http.Error(w, "bad update", http.StatusInternalServerError)
		return
	}

	if err := h.bridge.SubmitAsync(func(ctx context.Context) error {
		return h.sink.HandleUpdate(ctx, upd)
	}); err != nil {
		metrics.WebhookUpdatesTotal.WithLabelValues("rejected").Inc()
		h.log.Errorw("webhook submit failed", "err", err)
		http.Error(w, "worker unavailable", http.StatusInternalServerError)
		return
	}

	metrics.WebhookUpdatesTotal.WithLabelValues("accepted").Inc()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
