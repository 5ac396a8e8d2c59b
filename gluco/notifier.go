package gluco

import (
	"context"
	"fmt"
	"securegluco/gluco/defs"
	"securegluco/gluco/pkg/discgo"
	"securegluco/gluco/pkg/sched"
	"time"

	"go.uber.org/zap"
)

const TimeFormat = "2006-01-02 03:04 PM"

// AlertPusher sends critical alerts to the alerts channel. Sending happens
// off the loop, and failures are only logged.
type AlertPusher struct {
	Messager discgo.Messager
	Sched    sched.Scheduler
	Logger   *zap.Logger
	Location *time.Location
}

func NewAlertPusher(ms discgo.Messager, s sched.Scheduler, loc *time.Location, logger *zap.Logger) *AlertPusher {
	if loc == nil {
		loc = time.UTC
	}
	return &AlertPusher{Messager: ms, Sched: s, Logger: logger, Location: loc}
}

func (ap *AlertPusher) Notify(al defs.Alert) {
	msg := AlertMessage(al, ap.Location)
	ap.Sched.Async(func(ctx context.Context) func() {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := ap.Messager.SendMessage(msg, defs.AlertsChannel); err != nil {
			ap.Logger.Warn("unable to push alert",
				zap.String("id", al.ID),
				zap.Error(err),
			)
			return nil
		}
		ap.Logger.Debug("pushed alert", zap.String("id", al.ID), zap.String("title", al.Title))
		return nil
	})
}

// AlertMessage renders al as a single embed that mentions everyone.
func AlertMessage(al defs.Alert, loc *time.Location) defs.MessageData {
	return defs.MessageData{
		Content: "@everyone",
		Embeds: []defs.EmbedData{{
			Title:       fmt.Sprintf("%s (%s)", al.Title, al.Severity),
			Description: al.Message,
			Color:       defs.SeverityColor(al.Severity),
			Timestamp:   al.Time,
			Fields: []defs.EmbedField{
				{Name: "Type", Value: al.Type.String(), Inline: true},
				{Name: "Raised", Value: al.Time.In(loc).Format(TimeFormat), Inline: true},
				defs.EmptyEmbed(),
			},
		}},
		MentionEveryone: true,
	}
}
