package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Parser accepts six-field expressions (with seconds) plus @-descriptors.
func Parser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour |
		cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

func Validate(expr string) error {
	_, err := Parser().Parse(expr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// Next returns the first trigger time of expr strictly after from.
func Next(expr string, from time.Time) (time.Time, error) {
	schedule, err := Parser().Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return schedule.Next(from), nil
}
