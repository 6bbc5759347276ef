package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type echoHandler struct {
	keyword string
}

func (h echoHandler) Keyword() string { return h.keyword }
func (h echoHandler) Help() string    { return "To use " + h.keyword + ", send: " + h.keyword + " ..." }
func (h echoHandler) Handle(_ context.Context, msg Inbound) string {
	return h.keyword + ":" + msg.Text
}

type captureSender struct {
	connection string
	text       string
	calls      int
}

func (s *captureSender) Send(_ context.Context, connection, text string) error {
	s.connection = connection
	s.text = text
	s.calls++
	return nil
}

func newTestRouter(prefix string, sender Sender) *Router {
	r := NewRouter(prefix, NewDedup(nil, 0), sender, zerolog.New(os.Stderr))
	r.Register(echoHandler{keyword: "report"})
	r.Register(echoHandler{keyword: "cancel"})
	return r
}

func TestRoute_DispatchesByKeyword(t *testing.T) {
	r := newTestRouter("nutrition", &captureSender{})

	reply := r.Route(context.Background(), Inbound{Text: "nutrition report p1 h 120"})
	if reply != "report:p1 h 120" {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestRoute_KeywordCaseInsensitive(t *testing.T) {
	r := newTestRouter("nutrition", &captureSender{})

	reply := r.Route(context.Background(), Inbound{Text: "NUTRITION Report p1"})
	if reply != "report:p1" {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestRoute_UnknownKeywordGetsHelp(t *testing.T) {
	r := newTestRouter("nutrition", &captureSender{})

	reply := r.Route(context.Background(), Inbound{Text: "nutrition bogus p1"})
	if !strings.Contains(reply, "report") || !strings.Contains(reply, "cancel") {
		t.Errorf("expected combined help text, got %q", reply)
	}
}

func TestRoute_MissingPrefixGetsHelp(t *testing.T) {
	r := newTestRouter("nutrition", &captureSender{})

	reply := r.Route(context.Background(), Inbound{Text: "report p1 h 120"})
	if !strings.Contains(reply, "To use report") {
		t.Errorf("expected help text, got %q", reply)
	}
}

func TestRoute_NoPrefixConfigured(t *testing.T) {
	r := newTestRouter("", &captureSender{})

	reply := r.Route(context.Background(), Inbound{Text: "report p1 h 120"})
	if reply != "report:p1 h 120" {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestWebhook_RepliesAndSends(t *testing.T) {
	sender := &captureSender{}
	r := newTestRouter("nutrition", sender)

	e := echo.New()
	body := `{"message_id":"m1","from":"+256700000001","text":"nutrition report p1"}`
	req := httptest.NewRequest(http.MethodPost, "/sms/inbound", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := r.WebhookHandler()(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp InboundResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reply != "report:p1" {
		t.Errorf("unexpected reply: %q", resp.Reply)
	}
	if sender.calls != 1 || sender.connection != "+256700000001" {
		t.Errorf("expected one send to +256700000001, got %d to %q", sender.calls, sender.connection)
	}
}

func TestWebhook_RequiresFrom(t *testing.T) {
	r := newTestRouter("nutrition", &captureSender{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/sms/inbound", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := r.WebhookHandler()(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
