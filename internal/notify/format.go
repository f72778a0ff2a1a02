package notify

import (
	"fmt"
	"time"
)

var frWeekdays = map[time.Weekday]string{
	time.Monday:    "lundi",
	time.Tuesday:   "mardi",
	time.Wednesday: "mercredi",
	time.Thursday:  "jeudi",
	time.Friday:    "vendredi",
	time.Saturday:  "samedi",
	time.Sunday:    "dimanche",
}

// FormatInterval форматирует интервал брони для письма.
// Если loc != nil, время переводится в указанный часовой пояс.
// Интервал в пределах одного дня: «lundi 02.03.2026, 10:00–12:00»,
// иначе обе границы выводятся полностью.
func FormatInterval(start, end time.Time, loc *time.Location) string {
	if loc != nil {
		start = start.In(loc)
		end = end.In(loc)
	}

	day := func(t time.Time) string {
		return fmt.Sprintf("%s %s", frWeekdays[t.Weekday()], t.Format("02.01.2006"))
	}

	if sameDay(start, end) {
		return fmt.Sprintf("%s, %s–%s", day(start), start.Format("15:04"), end.Format("15:04"))
	}
	return fmt.Sprintf("%s %s – %s %s", day(start), start.Format("15:04"), day(end), end.Format("15:04"))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
