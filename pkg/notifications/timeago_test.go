package notifications_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/windlogs/notifykit/pkg/notifications"
)

var refNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func TestTimeFormatter_English(t *testing.T) {
	t.Parallel()

	f := notifications.NewTimeFormatter("en")

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "Just now"},
		{30 * time.Second, "Just now"},
		{-time.Hour, "Just now"},
		{90 * time.Second, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{59 * time.Minute, "59 minutes ago"},
		{time.Hour, "1 hour ago"},
		{7200 * time.Second, "2 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{48 * time.Hour, "2 days ago"},
		{6*24*time.Hour + 23*time.Hour, "6 days ago"},
		{10 * 24 * time.Hour, "Mar 5, 2025"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Format(refNow.Add(-tt.ago), refNow))
		})
	}
}

func TestTimeFormatter_Locales(t *testing.T) {
	t.Parallel()

	tests := []struct {
		locale string
		ago    time.Duration
		want   string
	}{
		{"de", 30 * time.Second, "Gerade eben"},
		{"de-DE", 2 * time.Hour, "vor 2 Stunden"},
		{"de", 24 * time.Hour, "vor 1 Tag"},
		{"de", 10 * 24 * time.Hour, "05.03.2025"},
		{"fr", 3 * time.Minute, "il y a 3 minutes"},
		{"es", time.Minute, "hace 1 minuto"},
		{"ru", time.Minute, "1 минуту назад"},
		{"ru", 3 * time.Minute, "3 минуты назад"},
		{"ru", 5 * time.Minute, "5 минут назад"},
		{"ru", 2 * 24 * time.Hour, "2 дня назад"},
	}

	for _, tt := range tests {
		t.Run(tt.locale+"/"+tt.want, func(t *testing.T) {
			f := notifications.NewTimeFormatter(tt.locale)
			assert.Equal(t, tt.want, f.Format(refNow.Add(-tt.ago), refNow))
		})
	}
}

func TestTimeFormatter_Fallback(t *testing.T) {
	t.Parallel()

	for _, locale := range []string{"", "ja", "not a locale!"} {
		f := notifications.NewTimeFormatter(locale)
		assert.Equal(t, language.English, f.Locale(), "locale %q", locale)
		assert.Equal(t, "2 hours ago", f.Format(refNow.Add(-2*time.Hour), refNow))
	}
}
