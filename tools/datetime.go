package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/tools"
)

var datetimeLogger = logrus.WithField("tool", "datetime")

// DateTimeTool reports the current date and time, optionally in a named time zone.
type DateTimeTool struct {
	now func() time.Time
}

func NewDateTimeTool() *DateTimeTool {
	datetimeLogger.Debug("Initializing datetime tool")
	return &DateTimeTool{now: time.Now}
}

func (d *DateTimeTool) Description() string {
	return "Get the current date and time. Input: an optional IANA time zone such as 'UTC' or 'Africa/Lagos'; empty input uses the server's local time."
}

func (d *DateTimeTool) Name() string {
	return "datetime"
}

func (d *DateTimeTool) Call(ctx context.Context, input string) (string, error) {
	toolLogger := datetimeLogger.WithField("input", input)
	toolLogger.Info("DateTime tool called")

	now := d.now()
	zone := strings.TrimSpace(input)
	if zone != "" {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			toolLogger.WithError(err).Warn("Unknown time zone requested")
			return fmt.Sprintf("Error: unknown time zone %q", zone), nil
		}
		now = now.In(loc)
	}

	result := now.Format("Monday, 02 January 2006 15:04:05 MST")
	toolLogger.WithFields(logrus.Fields{
		"zone":   zone,
		"result": result,
	}).Debug("DateTime tool completed")

	return result, nil
}

var _ tools.Tool = (*DateTimeTool)(nil)
