package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/larkkit/lark-cli/internal/api"
)

// Request headers carrying the callback signature.
const (
	HeaderTimestamp = "X-Lark-Request-Timestamp"
	HeaderNonce     = "X-Lark-Request-Nonce"
	HeaderSignature = "X-Lark-Signature"
)

const maxBodyBytes = 1 << 20

// Handler serves the event callback URL. It answers URL verification,
// stores app tickets for ISV apps and passes everything else to OnEvent.
type Handler struct {
	Options Options
	// Store receives app tickets under api.AppTicketKey. Nil drops them.
	Store   api.TokenStore
	OnEvent func(ctx context.Context, ev *Event) error
	Logger  *slog.Logger
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	if sig := r.Header.Get(HeaderSignature); sig != "" && h.Options.EncryptKey != "" {
		err := VerifySignature(r.Header.Get(HeaderTimestamp), r.Header.Get(HeaderNonce), h.Options.EncryptKey, body, sig)
		if err != nil {
			h.logger().Warn("rejected event", "error", err)
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
	}

	ev, err := Decode(body, h.Options)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrInvalidToken) {
			status = http.StatusUnauthorized
		}
		h.logger().Warn("rejected event", "error", err)
		http.Error(w, err.Error(), status)
		return
	}

	ctx := r.Context()
	switch ev.Type {
	case TypeURLVerification:
		writeJSON(w, map[string]string{"challenge": ev.Challenge})
		return
	case TypeAppTicket:
		if err := h.storeTicket(ctx, ev); err != nil {
			h.logger().Error("store app ticket", "app_id", ev.AppID, "error", err)
			http.Error(w, "store app ticket", http.StatusInternalServerError)
			return
		}
	}

	if h.OnEvent != nil {
		if err := h.OnEvent(ctx, ev); err != nil {
			h.logger().Error("event callback", "type", ev.Type, "event_id", ev.EventID, "error", err)
			http.Error(w, "event callback failed", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, map[string]string{"msg": "success"})
}

func (h *Handler) storeTicket(ctx context.Context, ev *Event) error {
	ticket, ok := ev.AppTicket()
	if !ok || ev.AppID == "" {
		return errors.New("app_ticket event without app_id or ticket")
	}
	if h.Store == nil {
		return nil
	}
	// The platform pushes a new ticket every hour, so entries never expire
	// on their own.
	if err := h.Store.Set(ctx, api.AppTicketKey(ev.AppID), ticket, 0); err != nil {
		return err
	}
	h.logger().Debug("stored app ticket", "app_id", ev.AppID)
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
