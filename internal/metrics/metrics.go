/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package metrics collects the Prometheus series of the request processor.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes
const (
	OutcomeOK        = "ok"
	OutcomeSoftError = "soft_error"
	OutcomeRejected  = "rejected"
)

// Notification outcomes
const (
	NotifyDelivered = "delivered"
	NotifyOffline   = "offline"
	NotifyDropped   = "dropped"
	NotifyFailed    = "failed"
)

// Recorder is what the processor, the crypto channel and the fanout report into.
type Recorder interface {
	RecordRequest(kind, outcome string, elapsed time.Duration)
	RecordNotification(outcome string)
	RecordCryptoFailure(op string)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	notifications  *prometheus.CounterVec
	cryptoFailures *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its series on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Processed client requests by kind and outcome",
		}, []string{"kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chat_request_duration_seconds",
			Help:    "Time spent processing a client request",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_notifications_total",
			Help: "Push notifications by delivery outcome",
		}, []string{"outcome"}),
		cryptoFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_crypto_failures_total",
			Help: "Failed unwrap, wrap or verify operations",
		}, []string{"op"}),
	}

	reg.MustRegister(
		c.requests,
		c.duration,
		c.notifications,
		c.cryptoFailures,
	)

	return c
}

func (c *Collector) RecordRequest(kind, outcome string, elapsed time.Duration) {
	c.requests.WithLabelValues(kind, outcome).Inc()
	c.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (c *Collector) RecordNotification(outcome string) {
	c.notifications.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordCryptoFailure(op string) {
	c.cryptoFailures.WithLabelValues(op).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRequest(string, string, time.Duration) {}
func (Nop) RecordNotification(string)                    {}
func (Nop) RecordCryptoFailure(string)                   {}
