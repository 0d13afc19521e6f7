// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mailer delivers outbound email off the request path.

Architecture:

  - Sender: one synchronous delivery attempt ([SMTPSender], [LogSender]).
  - Dispatcher: a fixed pool of workers fed by a bounded channel. Enqueue never
    blocks; when the buffer is full the message is dropped and logged.

Delivery is fire-and-forget. Failures are logged and counted, never retried and
never reported to the caller that enqueued the message.
*/
package mailer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/dublinbikes/internal/platform/metrics"
)

// Message is one email with a plain-text and an optional HTML alternative.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender performs one delivery attempt.
type Sender interface {
	Send(ctx context.Context, message Message) error
}

// # Dispatcher

// Dispatcher runs a bounded worker pool in front of a [Sender].
//
// # Concurrency
//
// Enqueue is safe for concurrent use and never blocks. Close stops intake and
// waits for queued messages to drain.
type Dispatcher struct {
	sender      Sender
	queue       chan Message
	sendTimeout time.Duration
	logger      *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts workers goroutines reading from a buffer of queueSize.
func NewDispatcher(sender Sender, workers, queueSize int, sendTimeout time.Duration, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	dispatcher := &Dispatcher{
		sender:      sender,
		queue:       make(chan Message, queueSize),
		sendTimeout: sendTimeout,
		logger:      logger.With(slog.String("component", "mailer")),
	}

	dispatcher.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go dispatcher.work()
	}

	return dispatcher
}

// Enqueue schedules message for delivery and reports whether it was accepted.
func (dispatcher *Dispatcher) Enqueue(message Message) bool {
	dispatcher.mu.RLock()
	defer dispatcher.mu.RUnlock()

	if dispatcher.closed {
		dispatcher.drop(message, "closed")
		return false
	}

	select {
	case dispatcher.queue <- message:
		return true
	default:
		dispatcher.drop(message, "queue_full")
		return false
	}
}

// Close stops intake and waits until queued messages are delivered or ctx ends.
func (dispatcher *Dispatcher) Close(ctx context.Context) error {
	dispatcher.mu.Lock()
	if !dispatcher.closed {
		dispatcher.closed = true
		close(dispatcher.queue)
	}
	dispatcher.mu.Unlock()

	done := make(chan struct{})
	go func() {
		dispatcher.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.New("mailer: shutdown deadline exceeded before the queue drained")
	}
}

func (dispatcher *Dispatcher) work() {
	defer dispatcher.wg.Done()

	for message := range dispatcher.queue {
		dispatcher.deliver(message)
	}
}

func (dispatcher *Dispatcher) deliver(message Message) {
	ctx := context.Background()
	if dispatcher.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dispatcher.sendTimeout)
		defer cancel()
	}

	if err := dispatcher.sender.Send(ctx, message); err != nil {
		metrics.ObserveMail("failed")
		dispatcher.logger.Error("mail_send_failed",
			slog.String("to", message.To),
			slog.String("subject", message.Subject),
			slog.Any("error", err),
		)
		return
	}

	metrics.ObserveMail("sent")
	dispatcher.logger.Info("mail_sent",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
	)
}

func (dispatcher *Dispatcher) drop(message Message, reason string) {
	metrics.ObserveMail("dropped")
	dispatcher.logger.Warn("mail_dropped",
		slog.String("to", message.To),
		slog.String("reason", reason),
	)
}

// # Log Sender

// LogSender stands in for SMTP when no mail server is configured.
//
// Bodies carry one-time secrets, so they are only logged at debug level.
type LogSender struct {
	Logger *slog.Logger
}

// Send logs the message instead of delivering it.
func (sender LogSender) Send(ctx context.Context, message Message) error {
	logger := sender.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.InfoContext(ctx, "mail_not_configured_logged_only",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
	)
	logger.DebugContext(ctx, "mail_body", slog.String("text", message.TextBody))
	return nil
}
