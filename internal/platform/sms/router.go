package sms

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Router dispatches inbound messages to keyword handlers. Routing strips an
// optional prefix ("nutrition") and the handler keyword ("report"); the
// remainder is the handler's command text.
type Router struct {
	prefix   string
	handlers map[string]Handler
	order    []string // preserve registration order for help text
	dedup    *Dedup
	sender   Sender
	log      zerolog.Logger
}

func NewRouter(prefix string, dedup *Dedup, sender Sender, log zerolog.Logger) *Router {
	return &Router{
		prefix:   strings.ToLower(strings.TrimSpace(prefix)),
		handlers: make(map[string]Handler),
		dedup:    dedup,
		sender:   sender,
		log:      log,
	}
}

// Register adds a keyword handler. Later registrations with the same
// keyword replace earlier ones.
func (r *Router) Register(h Handler) {
	kw := strings.ToLower(h.Keyword())
	if _, exists := r.handlers[kw]; !exists {
		r.order = append(r.order, kw)
	}
	r.handlers[kw] = h
}

// Route produces the reply for one inbound message. An unroutable message
// (missing prefix, unknown keyword, empty body) gets the combined help text
// so the sender always hears back.
func (r *Router) Route(ctx context.Context, msg Inbound) string {
	fields := strings.Fields(msg.Text)

	if r.prefix != "" {
		if len(fields) == 0 || strings.ToLower(fields[0]) != r.prefix {
			return r.helpText()
		}
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return r.helpText()
	}

	h, ok := r.handlers[strings.ToLower(fields[0])]
	if !ok {
		return r.helpText()
	}

	routed := msg
	routed.Text = strings.Join(fields[1:], " ")
	return h.Handle(ctx, routed)
}

func (r *Router) helpText() string {
	var lines []string
	for _, kw := range r.order {
		lines = append(lines, r.handlers[kw].Help())
	}
	if len(lines) == 0 {
		return "No commands are available."
	}
	return strings.Join(lines, "\n")
}

// ---------------------------------------------------------------------------
// Webhook
// ---------------------------------------------------------------------------

// InboundRequest is the gateway webhook payload.
type InboundRequest struct {
	MessageID string `json:"message_id"`
	From      string `json:"from"`
	Text      string `json:"text"`
}

// InboundResponse echoes the reply so gateways that deliver synchronously
// can use the response body directly.
type InboundResponse struct {
	Reply string `json:"reply"`
}

// WebhookHandler returns the Echo handler for POST /sms/inbound.
func (r *Router) WebhookHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req InboundRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed payload"})
		}
		if req.From == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "from is required"})
		}

		ctx := c.Request().Context()

		seen, err := r.dedup.Seen(ctx, req.MessageID)
		if err != nil {
			// A dedup outage must not drop live traffic; log and continue.
			r.log.Warn().Err(err).Str("message_id", req.MessageID).Msg("dedup check failed")
		}
		if seen {
			r.log.Info().Str("message_id", req.MessageID).Msg("duplicate delivery dropped")
			return c.NoContent(http.StatusOK)
		}

		msg := Inbound{MessageID: req.MessageID, Connection: req.From, Text: req.Text}
		reply := r.Route(ctx, msg)

		if err := r.sender.Send(ctx, msg.Connection, reply); err != nil {
			r.log.Error().Err(err).Str("connection", msg.Connection).Msg("send reply failed")
			// The reply is still returned in the response body so a
			// synchronous gateway can deliver it.
		}

		return c.JSON(http.StatusOK, InboundResponse{Reply: reply})
	}
}
