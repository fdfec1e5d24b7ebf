/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package listener polls on behalf of dependent displays: every tick it
// publishes notifications:updated so badge counts and lists re-fetch.
package listener

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"teo-client-go/internal/events"
)

// DefaultPollingInterval is used when the configured interval is not positive.
const DefaultPollingInterval = 30 * time.Second

// Source tags events published by the listener.
const Source = "listener"

// NotificationListener publishes a refresh signal on a fixed interval
type NotificationListener struct {
	events          events.Publisher
	pollingInterval time.Duration

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
	ticks    int
}

func NewNotificationListener(pub events.Publisher, interval time.Duration) *NotificationListener {
	if interval <= 0 {
		interval = DefaultPollingInterval
	}
	return &NotificationListener{
		events:          pub,
		pollingInterval: interval,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Run publishes immediately and then on every tick, blocking until ctx is
// done or Stop is called. A listener runs at most once.
func (l *NotificationListener) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return errAlreadyRunning
	}
	l.running = true
	l.mu.Unlock()
	defer close(l.doneChan)

	zap.L().Info("Starting notification listener",
		zap.Duration("polling_interval", l.pollingInterval))

	ticker := time.NewTicker(l.pollingInterval)
	defer ticker.Stop()

	l.poll()

	for {
		select {
		case <-ticker.C:
			l.poll()
		case <-l.stopChan:
			zap.L().Info("Notification listener stopped")
			return nil
		case <-ctx.Done():
			zap.L().Info("Notification listener stopped", zap.Error(ctx.Err()))
			return nil
		}
	}
}

// Stop ends Run and waits for it to return. It is safe to call more than once
// and before Run.
func (l *NotificationListener) Stop() {
	l.stopOnce.Do(func() { close(l.stopChan) })

	l.mu.Lock()
	running := l.running
	l.mu.Unlock()
	if running {
		<-l.doneChan
	}
}

// Ticks reports how many refreshes have been published.
func (l *NotificationListener) Ticks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticks
}

func (l *NotificationListener) poll() {
	l.mu.Lock()
	l.ticks++
	n := l.ticks
	l.mu.Unlock()

	zap.L().Debug("Publishing notification refresh", zap.Int("tick", n))
	l.events.Publish(events.NotificationsUpdated{Source: Source})
}
