package cli

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/nutrisync/internal/client/models"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

func newDateParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// resolveDate accepts YYYY-MM-DD as is and otherwise tries phrases such as
// "yesterday" or "last monday" relative to now.
func resolveDate(w *when.Parser, s string, now time.Time) (string, error) {
	if models.ValidateDate(s) == nil {
		return s, nil
	}
	r, err := w.Parse(s, now)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", s, err)
	}
	if r == nil {
		return "", fmt.Errorf("unrecognised date %q, use YYYY-MM-DD", s)
	}
	return models.Today(r.Time), nil
}

// dateArg resolves args[i], defaulting to today.
func (a *App) dateArg(args []string, i int) (string, error) {
	if i >= len(args) {
		return a.today(), nil
	}
	return resolveDate(a.dates, args[i], a.now())
}
