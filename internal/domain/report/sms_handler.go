package report

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nutrisms/nutrisms/internal/domain/reporter"
	"github.com/nutrisms/nutrisms/internal/platform/growth"
	"github.com/nutrisms/nutrisms/internal/platform/sms"
)

const anonymousReporter = "anonymous"

// ReportHandler is the SMS entry point for creating reports. It runs the
// pipeline stages in order (tokenize, validate, analyze, persist) and maps
// every failure to one reply from the closed template set. Handle never
// returns an empty reply.
type ReportHandler struct {
	prefix   string
	form     *CreateReportForm
	service  *Service
	composer *Composer
	log      zerolog.Logger
}

func NewReportHandler(prefix string, form *CreateReportForm, service *Service, composer *Composer, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{prefix: prefix, form: form, service: service, composer: composer, log: log}
}

func (h *ReportHandler) Keyword() string { return "report" }

func (h *ReportHandler) Help() string {
	return h.composer.Compose(OutcomeHelp, h.usageData())
}

func (h *ReportHandler) usageData() map[string]string {
	return map[string]string{"prefix": h.prefix, "keyword": h.Keyword()}
}

func (h *ReportHandler) Handle(ctx context.Context, msg sms.Inbound) string {
	if strings.TrimSpace(msg.Text) == "" {
		return h.Help()
	}

	cmd, err := Tokenize(msg.Text)
	if err != nil {
		h.log.Info().Str("connection", msg.Connection).Err(err).Msg("malformed report command")
		return h.composer.Compose(OutcomeFormatError, h.usageData())
	}

	draft, err := h.form.Validate(ctx, cmd, msg.Connection, msg.Text)
	if err != nil {
		var formErr *FormError
		if errors.As(err, &formErr) {
			return h.composer.Compose(OutcomeFormError, map[string]string{"message": formErr.Message})
		}
		h.log.Error().Str("connection", msg.Connection).Err(err).Msg("report validation failed")
		return h.composer.Compose(OutcomeError, nil)
	}

	rep, err := h.service.CreateFromDraft(ctx, draft)
	if err != nil {
		var rangeErr *growth.InvalidMeasurementError
		if errors.As(err, &rangeErr) {
			return h.composer.Compose(OutcomeInvalidMeasurement, map[string]string{"message": rangeErr.Message})
		}
		h.log.Error().Str("connection", msg.Connection).Err(err).Msg("report creation failed")
		return h.composer.Compose(OutcomeError, nil)
	}

	data := rep.IndicatorDisplay()
	data["reporter"] = reporterDisplay(draft.Reporter)
	data["patient"] = draft.Patient.DisplayName()
	data["patient_id"] = draft.Patient.SourceID
	return h.composer.Compose(OutcomeSuccess, data)
}

// CancelHandler is the SMS entry point for cancelling a patient's most
// recent report.
type CancelHandler struct {
	prefix    string
	form      *CancelReportForm
	reporters *reporter.Service
	service   *Service
	composer  *Composer
	log       zerolog.Logger
}

func NewCancelHandler(prefix string, form *CancelReportForm, reporters *reporter.Service, service *Service, composer *Composer, log zerolog.Logger) *CancelHandler {
	return &CancelHandler{prefix: prefix, form: form, reporters: reporters, service: service, composer: composer, log: log}
}

func (h *CancelHandler) Keyword() string { return "cancel" }

func (h *CancelHandler) Help() string {
	return h.composer.Compose(OutcomeCancelHelp, h.usageData())
}

func (h *CancelHandler) usageData() map[string]string {
	return map[string]string{"prefix": h.prefix, "keyword": h.Keyword()}
}

func (h *CancelHandler) Handle(ctx context.Context, msg sms.Inbound) string {
	if strings.TrimSpace(msg.Text) == "" {
		return h.Help()
	}

	cmd, err := Tokenize(msg.Text)
	if err != nil {
		return h.composer.Compose(OutcomeCancelHelp, h.usageData())
	}

	p, err := h.form.Validate(ctx, cmd)
	if err != nil {
		var formErr *FormError
		if errors.As(err, &formErr) {
			return h.composer.Compose(OutcomeFormError, map[string]string{"message": formErr.Message})
		}
		h.log.Error().Str("connection", msg.Connection).Err(err).Msg("cancel validation failed")
		return h.composer.Compose(OutcomeError, nil)
	}

	if _, err := h.service.CancelLatest(ctx, p.ID); err != nil {
		if errors.Is(err, ErrNoReportToCancel) {
			return h.composer.Compose(OutcomeCancelNotFound, map[string]string{"patient_id": p.SourceID})
		}
		h.log.Error().Str("connection", msg.Connection).Err(err).Msg("cancel failed")
		return h.composer.Compose(OutcomeError, nil)
	}

	rep, err := h.reporters.ResolveByConnection(ctx, msg.Connection)
	if err != nil {
		h.log.Warn().Str("connection", msg.Connection).Err(err).Msg("reporter lookup failed for reply")
	}

	return h.composer.Compose(OutcomeCancelSuccess, map[string]string{
		"reporter":   reporterDisplay(rep),
		"patient":    p.DisplayName(),
		"patient_id": p.SourceID,
	})
}

func reporterDisplay(r *reporter.Reporter) string {
	if r == nil {
		return anonymousReporter
	}
	return r.DisplayName()
}
