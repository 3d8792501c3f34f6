package bbgo

import (
	"bytes"
	"regexp"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/c9s/bandbot/pkg/util"
)

var Notification = &Notifiability{}

func Notify(obj interface{}, args ...interface{}) {
	Notification.Notify(obj, args...)
}

// NotifySymbol sends the message to the channel routed for the symbol
func NotifySymbol(symbol string, obj interface{}, args ...interface{}) {
	Notification.NotifySymbol(symbol, obj, args...)
}

func SendPhoto(buffer *bytes.Buffer) {
	Notification.Upload(buffer)
}

type Notifier interface {
	Notify(obj any, args ...any)
	Upload(buffer *bytes.Buffer)
}

// ChannelNotifier is a notifier that can post to a channel other than its default
type ChannelNotifier interface {
	NotifyTo(channel string, obj any, args ...any)
}

type NullNotifier struct{}

func (n *NullNotifier) Notify(obj interface{}, args ...interface{}) {}

func (n *NullNotifier) Upload(buffer *bytes.Buffer) {}

type symbolRoute struct {
	pattern *regexp.Regexp
	channel string
}

// Notifiability fans the messages out to every notifier. Strategies of
// different sessions notify concurrently.
type Notifiability struct {
	mu        sync.RWMutex
	notifiers []Notifier
	routes    []symbolRoute
}

// AddNotifier adds the notifier that implements the Notifier interface.
func (m *Notifiability) AddNotifier(notifier Notifier) {
	m.mu.Lock()
	m.notifiers = append(m.notifiers, notifier)
	m.mu.Unlock()
}

// AddSymbolRoutes maps symbol patterns to channels, e.g. "^BTC" -> "#btc".
// Patterns are matched in lexical order, the first match wins.
func (m *Notifiability) AddSymbolRoutes(routes map[string]string) error {
	patterns := make([]string, 0, len(routes))
	for pattern := range routes {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return errors.Wrapf(err, "invalid symbol channel pattern %q", pattern)
		}

		m.routes = append(m.routes, symbolRoute{pattern: re, channel: routes[pattern]})
	}

	return nil
}

// RouteSymbol returns the channel of the first pattern matching symbol
func (m *Notifiability) RouteSymbol(symbol string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, route := range m.routes {
		if route.pattern.MatchString(symbol) {
			return route.channel, true
		}
	}

	return "", false
}

func (m *Notifiability) snapshot() []Notifier {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Notifier(nil), m.notifiers...)
}

func (m *Notifiability) Notify(obj interface{}, args ...interface{}) {
	if str, ok := obj.(string); ok {
		logrus.Infof(str, util.FilterSimpleArgs(args)...)
	}

	for _, n := range m.snapshot() {
		n.Notify(obj, args...)
	}
}

func (m *Notifiability) NotifySymbol(symbol string, obj interface{}, args ...interface{}) {
	channel, ok := m.RouteSymbol(symbol)
	if !ok {
		m.Notify(obj, args...)
		return
	}

	if str, ok := obj.(string); ok {
		logrus.WithField("symbol", symbol).Infof(str, util.FilterSimpleArgs(args)...)
	}

	for _, n := range m.snapshot() {
		if cn, ok := n.(ChannelNotifier); ok {
			cn.NotifyTo(channel, obj, args...)
		} else {
			n.Notify(obj, args...)
		}
	}
}

func (m *Notifiability) Upload(buffer *bytes.Buffer) {
	for _, n := range m.snapshot() {
		n.Upload(buffer)
	}
}
