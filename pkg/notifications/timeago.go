package notifications

import (
	"time"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	keyJustNow = "Just now"
	keyMinutes = "%d minutes ago"
	keyHours   = "%d hours ago"
	keyDays    = "%d days ago"
)

type phrases struct {
	justNow    string
	minutes    []any
	hours      []any
	days       []any
	dateLayout string
}

var locales = map[language.Tag]phrases{
	language.English: {
		justNow:    "Just now",
		minutes:    []any{plural.One, "%d minute ago", plural.Other, "%d minutes ago"},
		hours:      []any{plural.One, "%d hour ago", plural.Other, "%d hours ago"},
		days:       []any{plural.One, "%d day ago", plural.Other, "%d days ago"},
		dateLayout: "Jan 2, 2006",
	},
	language.German: {
		justNow:    "Gerade eben",
		minutes:    []any{plural.One, "vor %d Minute", plural.Other, "vor %d Minuten"},
		hours:      []any{plural.One, "vor %d Stunde", plural.Other, "vor %d Stunden"},
		days:       []any{plural.One, "vor %d Tag", plural.Other, "vor %d Tagen"},
		dateLayout: "02.01.2006",
	},
	language.French: {
		justNow:    "À l'instant",
		minutes:    []any{plural.One, "il y a %d minute", plural.Other, "il y a %d minutes"},
		hours:      []any{plural.One, "il y a %d heure", plural.Other, "il y a %d heures"},
		days:       []any{plural.One, "il y a %d jour", plural.Other, "il y a %d jours"},
		dateLayout: "02/01/2006",
	},
	language.Spanish: {
		justNow:    "Justo ahora",
		minutes:    []any{plural.One, "hace %d minuto", plural.Other, "hace %d minutos"},
		hours:      []any{plural.One, "hace %d hora", plural.Other, "hace %d horas"},
		days:       []any{plural.One, "hace %d día", plural.Other, "hace %d días"},
		dateLayout: "02/01/2006",
	},
	language.Russian: {
		justNow:    "Только что",
		minutes:    []any{plural.One, "%d минуту назад", plural.Few, "%d минуты назад", plural.Other, "%d минут назад"},
		hours:      []any{plural.One, "%d час назад", plural.Few, "%d часа назад", plural.Other, "%d часов назад"},
		days:       []any{plural.One, "%d день назад", plural.Few, "%d дня назад", plural.Other, "%d дней назад"},
		dateLayout: "02.01.2006",
	},
}

var (
	supported = []language.Tag{
		language.English,
		language.German,
		language.French,
		language.Spanish,
		language.Russian,
	}
	matcher    = language.NewMatcher(supported)
	phrasebook = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, p := range locales {
		mustSet(b.SetString(tag, keyJustNow, p.justNow))
		mustSet(b.Set(tag, keyMinutes, plural.Selectf(1, "%d", p.minutes...)))
		mustSet(b.Set(tag, keyHours, plural.Selectf(1, "%d", p.hours...)))
		mustSet(b.Set(tag, keyDays, plural.Selectf(1, "%d", p.days...)))
	}
	return b
}

func mustSet(err error) {
	if err != nil {
		panic(err)
	}
}

// TimeFormatter renders the relative "time ago" label of a record.
type TimeFormatter struct {
	tag        language.Tag
	printer    *message.Printer
	dateLayout string
}

// NewTimeFormatter returns a formatter for the closest supported locale.
// Unknown or empty locales fall back to English.
func NewTimeFormatter(locale string) *TimeFormatter {
	tag := language.English
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			_, idx, conf := matcher.Match(parsed)
			if conf != language.No {
				tag = supported[idx]
			}
		}
	}

	return &TimeFormatter{
		tag:        tag,
		printer:    message.NewPrinter(tag, message.Catalog(phrasebook)),
		dateLayout: locales[tag].dateLayout,
	}
}

// Locale returns the matched language tag.
func (f *TimeFormatter) Locale() language.Tag {
	return f.tag
}

// Format describes how long before now createdAt was.
func (f *TimeFormatter) Format(createdAt, now time.Time) string {
	d := now.Sub(createdAt)
	switch {
	case d < time.Minute:
		return f.printer.Sprintf(keyJustNow)
	case d < time.Hour:
		return f.printer.Sprintf(keyMinutes, int(d/time.Minute))
	case d < 24*time.Hour:
		return f.printer.Sprintf(keyHours, int(d/time.Hour))
	case d < 7*24*time.Hour:
		return f.printer.Sprintf(keyDays, int(d/(24*time.Hour)))
	default:
		return createdAt.In(now.Location()).Format(f.dateLayout)
	}
}
