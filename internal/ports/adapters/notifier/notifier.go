// Package notifier implements ports.Notifier for hosts without a UI: the
// advisory is logged, and the latest one is kept for the HTTP API.
package notifier

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Advisory struct {
	Message     string    `json:"message"`
	ActionLabel string    `json:"actionLabel"`
	ActionURL   string    `json:"actionUrl"`
	At          time.Time `json:"at"`
}

type Log struct {
	log logrus.FieldLogger

	mu     sync.Mutex
	latest *Advisory
}

func New(log logrus.FieldLogger) *Log {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Log{log: log}
}

func (n *Log) Advise(message, actionLabel, actionURL string) {
	a := Advisory{Message: message, ActionLabel: actionLabel, ActionURL: actionURL, At: time.Now()}
	n.mu.Lock()
	n.latest = &a
	n.mu.Unlock()

	n.log.WithFields(logrus.Fields{
		"action": actionLabel,
		"url":    actionURL,
	}).Warn(message)
}

// Latest returns the most recent advisory, if any.
func (n *Log) Latest() (Advisory, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.latest == nil {
		return Advisory{}, false
	}
	return *n.latest, true
}

// Clear drops the stored advisory, e.g. after a successful reprobe.
func (n *Log) Clear() {
	n.mu.Lock()
	n.latest = nil
	n.mu.Unlock()
}
