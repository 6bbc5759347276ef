package report

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Outcome selects the reply template for one processed command. The
// sender-facing vocabulary is closed: every command resolves to exactly one
// of these kinds.
type Outcome string

const (
	OutcomeHelp               Outcome = "help"
	OutcomeSuccess            Outcome = "success"
	OutcomeFormatError        Outcome = "format_error"
	OutcomeFormError          Outcome = "form_error"
	OutcomeInvalidMeasurement Outcome = "invalid_measurement"
	OutcomeError              Outcome = "error"

	OutcomeCancelHelp     Outcome = "cancel_help"
	OutcomeCancelSuccess  Outcome = "cancel_success"
	OutcomeCancelNotFound Outcome = "cancel_not_found"
)

const reportUsage = "<patient_id> H <height (cm)> W <weight (kg)> M <muac (cm)> O <oedema (Y/N)>"

var templates = map[Outcome]string{
	OutcomeHelp: "To create a nutrition report, send: {prefix} {keyword} " + reportUsage,

	OutcomeSuccess: "Thanks {reporter}. Nutrition report for {patient} ({patient_id}):\n" +
		"weight: {weight} kg\nheight: {height} cm\nmuac: {muac} cm\noedema: {oedema}",

	OutcomeFormatError: "Sorry, the system could not understand your report. " +
		"To create a nutrition report, send: {prefix} {keyword} " + reportUsage,

	OutcomeFormError: "Sorry, the system could not process your report: {message}",

	OutcomeInvalidMeasurement: "Sorry, one of your measurements is invalid: {message}",

	OutcomeError: "Sorry, an unexpected error occurred while processing your report. " +
		"Please try again later.",

	OutcomeCancelHelp: "To cancel a patient's most recent nutrition report, " +
		"send: {prefix} {keyword} <patient_id>",

	OutcomeCancelSuccess: "Thanks {reporter}. The most recent nutrition report " +
		"for {patient} ({patient_id}) has been cancelled.",

	OutcomeCancelNotFound: "Sorry, {patient_id} does not have a nutrition report to cancel.",
}

var placeholderPattern = regexp.MustCompile(`\{[a-z_]+\}`)

// Composer renders reply templates. Substitution is purely textual and
// never executes sender input. Compose does not fail: a template gap is an
// internal bug, logged and replaced with the generic error reply.
type Composer struct {
	log zerolog.Logger
}

func NewComposer(log zerolog.Logger) *Composer {
	return &Composer{log: log}
}

// Compose renders the template for kind, substituting {name} placeholders
// from data.
func (c *Composer) Compose(kind Outcome, data map[string]string) string {
	tmpl, ok := templates[kind]
	if !ok {
		c.log.Error().Str("outcome", string(kind)).Msg("no template for outcome")
		return templates[OutcomeError]
	}

	// Check the template's placeholders against data before substituting,
	// so brace syntax inside sender-controlled values renders literally.
	for _, ph := range placeholderPattern.FindAllString(tmpl, -1) {
		if _, ok := data[strings.Trim(ph, "{}")]; !ok {
			c.log.Error().
				Str("outcome", string(kind)).
				Str("placeholder", ph).
				Msg("unfilled placeholder in reply template")
			return templates[OutcomeError]
		}
	}

	pairs := make([]string, 0, len(data)*2)
	for name, value := range data {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
