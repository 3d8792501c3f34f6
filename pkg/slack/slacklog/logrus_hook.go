package slacklog

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"github.com/c9s/bandbot/pkg/slack/slackstyle"
)

var limiter = rate.NewLimiter(rate.Every(time.Minute), 3)

// MessagePoster is the part of the slack client the hook needs
type MessagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// LogHook posts the error level log entries to a slack channel
type LogHook struct {
	Slack        MessagePoster
	ErrorChannel string
	Limiter      *rate.Limiter
}

func NewLogHook(token string, channel string) *LogHook {
	return &LogHook{
		Slack:        slack.New(token),
		ErrorChannel: channel,
		Limiter:      limiter,
	}
}

func (t *LogHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.ErrorLevel,
		logrus.FatalLevel,
		logrus.PanicLevel,
	}
}

func (t *LogHook) Fire(e *logrus.Entry) error {
	if !t.Limiter.Allow() {
		return nil
	}

	var fields []slack.AttachmentField
	for k, d := range e.Data {
		fields = append(fields, slack.AttachmentField{
			Title: k,
			Value: fmt.Sprintf("%v", d),
			Short: true,
		})
	}

	attachment := slack.Attachment{
		Color:  slackstyle.Red,
		Title:  e.Level.String(),
		Text:   e.Message,
		Fields: fields,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := t.Slack.PostMessageContext(ctx, t.ErrorChannel,
		slack.MsgOptionText(e.Message, true),
		slack.MsgOptionAttachments(attachment))
	return err
}
