package timeparsing

import (
	"errors"
	"sync"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ErrNoMatch is returned when free text does not contain a recognizable
// time expression.
var ErrNoMatch = errors.New("no date/time expression recognized")

var (
	parserOnce sync.Once
	parser     *when.Parser
)

func nlpParser() *when.Parser {
	parserOnce.Do(func() {
		w := when.New(nil)
		w.Add(en.All...)
		w.Add(common.All...)
		parser = w
	})
	return parser
}

// ParseNaturalLanguage interprets free text such as "next friday 3pm" or
// "in 2 hours" relative to base, returning the target date it names.
// It is the scheduler's one concession to human-entered target dates; the
// rest of the system works exclusively in epoch seconds.
func ParseNaturalLanguage(text string, base time.Time) (time.Time, error) {
	if base.IsZero() {
		base = time.Now()
	}
	r, err := nlpParser().Parse(text, base)
	if err != nil {
		return time.Time{}, err
	}
	if r == nil {
		return time.Time{}, ErrNoMatch
	}
	return r.Time, nil
}
