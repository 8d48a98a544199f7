// Package locale maps month numbers to display names for a configured language.
package locale

import (
	"time"

	"golang.org/x/text/language"
)

// MonthNamer renders a calendar month for display.
type MonthNamer interface {
	MonthName(m time.Month) string
}

type monthTable [12]string

func (t monthTable) MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return m.String()
	}
	return t[m-1]
}

var english = monthTable{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var hebrew = monthTable{
	"ינואר", "פברואר", "מרץ", "אפריל", "מאי", "יוני",
	"יולי", "אוגוסט", "ספטמבר", "אוקטובר", "נובמבר", "דצמבר",
}

var supported = []language.Tag{language.English, language.Hebrew}

var tables = map[language.Tag]monthTable{
	language.English: english,
	language.Hebrew:  hebrew,
}

var matcher = language.NewMatcher(supported)

// English is the fallback namer.
func English() MonthNamer {
	return english
}

// New returns the namer that best matches tag, an IETF language tag such as
// "he-IL" or "en". Unknown or malformed tags fall back to English.
func New(tag string) MonthNamer {
	if tag == "" {
		return english
	}
	_, idx, confidence := matcher.Match(language.Make(tag))
	if confidence == language.No {
		return english
	}
	return tables[supported[idx]]
}
