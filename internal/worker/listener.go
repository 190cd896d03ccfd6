package worker

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/interfaces"
)

// Listener runs the queue loop: drain every locked job, then block on the
// notification channel until new work or the wait cycle elapses. Broken
// connections restart the whole loop under the queue retry class.
type Listener struct {
	ledger       interfaces.Ledger
	coordinator  *Coordinator
	queueTimeout time.Duration
	logger       arbor.ILogger

	interrupted atomic.Bool
	wake        chan struct{}
}

// NewListener wires the queue loop
func NewListener(ledger interfaces.Ledger, coordinator *Coordinator, queueTimeout time.Duration, logger arbor.ILogger) *Listener {
	return &Listener{
		ledger:       ledger,
		coordinator:  coordinator,
		queueTimeout: queueTimeout,
		logger:       logger,
		wake:         make(chan struct{}),
	}
}

// HandleSignals requests a graceful stop on SIGINT/SIGTERM: the in-flight
// job completes, then the loop exits
func (l *Listener) HandleSignals() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGABRT)
	go func() {
		received := <-signals
		l.logger.Info().Str("signal", received.String()).Msg("Shutdown requested, finishing current job")
		l.Stop()
	}()
}

// Stop flags the loop to exit after the current job
func (l *Listener) Stop() {
	if l.interrupted.CompareAndSwap(false, true) {
		close(l.wake)
	}
}

// Run blocks until the listener is stopped or the queue connection fails
// beyond the retry budget
func (l *Listener) Run(ctx context.Context) error {
	return common.Retry(l.logger, "queue loop", common.QueueRetryBase, common.QueueRetryTries, func() error {
		return l.loop(ctx)
	})
}

func (l *Listener) loop(ctx context.Context) error {
	for !l.interrupted.Load() {
		// Every iteration: the queue connection may have been re-dialed
		// by a mid-job operation, which drops the subscription with it
		if err := l.ledger.Listen(ctx); err != nil {
			return err
		}
		if err := l.drain(ctx); err != nil {
			return err
		}
		if l.interrupted.Load() {
			break
		}
		if err := l.wait(ctx); err != nil {
			return err
		}
	}

	l.logger.Info().Msg("Queue loop stopped")
	return nil
}

// drain processes locked jobs until the queue is empty. Each job runs in
// its own queue transaction; the row is deleted whatever the document
// outcome was, so a failing job cannot loop.
func (l *Listener) drain(ctx context.Context) error {
	for !l.interrupted.Load() {
		job, err := l.ledger.SelectNextJob(ctx)
		if err != nil {
			_ = l.ledger.Rollback(ctx)
			return err
		}
		if job == nil {
			// Release the transaction opened by the empty select
			return l.ledger.Commit(ctx)
		}

		l.coordinator.ProcessJob(ctx, job)

		if err := l.ledger.DeleteJob(ctx, job.ID); err != nil {
			_ = l.ledger.Rollback(ctx)
			return err
		}
		if err := l.ledger.Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}

// wait blocks on the notification channel; a stop request interrupts the
// wait without tearing the connection down as an error
func (l *Listener) wait(ctx context.Context) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-l.wake:
			cancel()
		case <-waitCtx.Done():
		}
	}()

	err := l.ledger.WaitForNotification(waitCtx, l.queueTimeout)
	if err != nil && l.interrupted.Load() {
		return nil
	}
	return err
}
