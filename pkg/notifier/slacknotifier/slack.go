package slacknotifier

import (
	"bytes"
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"github.com/c9s/bandbot/pkg/types"
)

type notifyTask struct {
	Channel string
	Opts    []slack.MsgOption
}

type Notifier struct {
	client  *slack.Client
	channel string

	limiter *rate.Limiter
	taskC   chan notifyTask

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type NotifyOption func(notifier *Notifier)

// WithLimiter overrides the default limit of 3 messages burst, 1 per second
func WithLimiter(limiter *rate.Limiter) NotifyOption {
	return func(notifier *Notifier) {
		notifier.limiter = limiter
	}
}

func New(client *slack.Client, channel string, options ...NotifyOption) *Notifier {
	ctx, cancel := context.WithCancel(context.Background())
	notifier := &Notifier{
		channel: channel,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(1*time.Second), 3),
		taskC:   make(chan notifyTask, 100),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	for _, o := range options {
		o(notifier)
	}

	go notifier.worker()

	return notifier
}

// Close stops the worker, the queued messages are dropped
func (n *Notifier) Close() {
	n.cancel()
	<-n.done
}

func (n *Notifier) worker() {
	defer close(n.done)

	for {
		select {
		case <-n.ctx.Done():
			return

		case task := <-n.taskC:
			if err := n.limiter.Wait(n.ctx); err != nil {
				return
			}

			_, _, err := n.client.PostMessageContext(n.ctx, task.Channel, task.Opts...)
			if err != nil {
				log.WithError(err).
					WithField("channel", task.Channel).
					Errorf("slack api error: %s", err.Error())
			}
		}
	}
}

func (n *Notifier) Notify(obj interface{}, args ...interface{}) {
	n.NotifyTo(n.channel, obj, args...)
}

func filterSlackAttachments(args []interface{}) (slackAttachments []slack.Attachment, pureArgs []interface{}) {
	var firstAttachmentOffset = -1
	for idx, arg := range args {
		switch a := arg.(type) {

		// concrete type assert first
		case slack.Attachment:
			if firstAttachmentOffset == -1 {
				firstAttachmentOffset = idx
			}

			slackAttachments = append(slackAttachments, a)

		case *slack.Attachment:
			if firstAttachmentOffset == -1 {
				firstAttachmentOffset = idx
			}

			slackAttachments = append(slackAttachments, *a)

		case types.SlackAttachmentCreator:
			if firstAttachmentOffset == -1 {
				firstAttachmentOffset = idx
			}

			slackAttachments = append(slackAttachments, a.SlackAttachment())

		case types.PlainText:
			if firstAttachmentOffset == -1 {
				firstAttachmentOffset = idx
			}

			slackAttachments = append(slackAttachments, slack.Attachment{
				Title: a.PlainText(),
			})
		}
	}

	pureArgs = args
	if firstAttachmentOffset > -1 {
		pureArgs = args[:firstAttachmentOffset]
	}

	return slackAttachments, pureArgs
}

func (n *Notifier) NotifyTo(channel string, obj interface{}, args ...interface{}) {
	if len(channel) == 0 {
		channel = n.channel
	}

	slackAttachments, pureArgs := filterSlackAttachments(args)

	var opts []slack.MsgOption

	switch a := obj.(type) {
	case string:
		opts = append(opts, slack.MsgOptionText(fmt.Sprintf(a, pureArgs...), true),
			slack.MsgOptionAttachments(slackAttachments...))

	case slack.Attachment:
		opts = append(opts, slack.MsgOptionAttachments(append([]slack.Attachment{a}, slackAttachments...)...))

	case types.SlackAttachmentCreator:
		opts = append(opts, slack.MsgOptionAttachments(append([]slack.Attachment{a.SlackAttachment()}, slackAttachments...)...))

	default:
		log.Errorf("slack message conversion error, unsupported object: %T %+v", a, a)
		return
	}

	select {
	case n.taskC <- notifyTask{
		Channel: channel,
		Opts:    opts,
	}:
	case <-time.After(50 * time.Millisecond):
		log.Warnf("slack notification queue is full, message to %s dropped", channel)
	}
}

// Upload posts a png image, the band charts are sent through here
func (n *Notifier) Upload(buffer *bytes.Buffer) {
	if buffer == nil || buffer.Len() == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(n.ctx, 30*time.Second)
	defer cancel()

	_, err := n.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Reader:   bytes.NewReader(buffer.Bytes()),
		FileSize: buffer.Len(),
		Filename: fmt.Sprintf("band-%d.png", time.Now().Unix()),
		Channel:  n.channel,
	})
	if err != nil {
		log.WithError(err).Errorf("slack upload error: %s", err.Error())
	}
}
