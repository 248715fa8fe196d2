package dialogue

import (
	"strings"
	"time"

	"soulcare/internal/models"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var relativeParser = newRelativeParser()

func newRelativeParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// NormalizeDate canonicalizes loosely formatted input ("June 1st",
// "03/04/2025", "next Monday") to YYYY-MM-DD. Comparison against the
// availability list is exact-string after this. The second return is
// false when nothing date-like could be parsed.
func NormalizeDate(input string, now time.Time) (string, bool) {
	text := strings.TrimSpace(input)
	if text == "" {
		return "", false
	}

	if t, err := time.Parse(models.DateLayout, text); err == nil {
		return t.Format(models.DateLayout), true
	}

	if t, err := dateparse.ParseAny(text); err == nil {
		return t.Format(models.DateLayout), true
	}

	// Relative phrases ("next Monday", "tomorrow") resolve against now.
	if r, err := relativeParser.Parse(text, now); err == nil && r != nil {
		return r.Time.Format(models.DateLayout), true
	}

	return "", false
}
