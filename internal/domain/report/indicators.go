package report

import "strings"

// Indicator is a canonical measurement name.
type Indicator string

const (
	IndicatorHeight Indicator = "height"
	IndicatorWeight Indicator = "weight"
	IndicatorMUAC   Indicator = "muac"
	IndicatorOedema Indicator = "oedema"
)

// indicatorAliases associates the tokens reporters may send with canonical
// indicators. By using indicator names the reporter need not remember an
// order by which to send measurements, and can skip unknown information.
var indicatorAliases = map[string]Indicator{
	"height": IndicatorHeight, "ht": IndicatorHeight, "h": IndicatorHeight,
	"weight": IndicatorWeight, "wt": IndicatorWeight, "w": IndicatorWeight,
	"muac": IndicatorMUAC, "m": IndicatorMUAC,
	"oedema": IndicatorOedema, "o": IndicatorOedema,
}

// ResolveIndicator maps a reporter-supplied token to its canonical
// indicator. Lookup is case-insensitive.
func ResolveIndicator(token string) (Indicator, bool) {
	ind, ok := indicatorAliases[strings.ToLower(token)]
	return ind, ok
}
