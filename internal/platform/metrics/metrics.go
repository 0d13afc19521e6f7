// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes the Prometheus collectors of the API.

Collectors are registered on the default registry through promauto and scraped
from /metrics. Domain packages record outcomes with the helpers below instead of
touching collectors directly.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dublinbikes"

// # Collectors

var (
	// HTTPRequestsTotal counts finished requests by route pattern, method and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "The total number of HTTP requests",
	}, []string{"route", "method", "status"})

	// HTTPRequestDuration observes request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "The request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	// AuthOperationsTotal counts account lifecycle operations by outcome code.
	AuthOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "The total number of account lifecycle operations",
	}, []string{"operation", "code"})

	// MailDeliveriesTotal counts notification deliveries by status (sent, failed, dropped).
	MailDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_deliveries_total",
		Help:      "The total number of verification mail deliveries",
	}, []string{"status"})

	// CacheLookupsTotal counts cache lookups by cache name and result (hit, miss, error).
	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "The total number of cache lookups",
	}, []string{"cache", "result"})

	// RateLimitExceededTotal counts requests rejected by the per-IP limiter.
	RateLimitExceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_exceeded_total",
		Help:      "The total number of rate limit exceeded events",
	})
)

// # Recording Helpers

// ObserveAuth records the outcome of an account operation. code 0 means success.
func ObserveAuth(operation string, code int) {
	AuthOperationsTotal.WithLabelValues(operation, strconv.Itoa(code)).Inc()
}

// ObserveMail records a mail delivery outcome.
func ObserveMail(status string) {
	MailDeliveriesTotal.WithLabelValues(status).Inc()
}

// ObserveCache records a cache lookup result.
func ObserveCache(cache, result string) {
	CacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

// # HTTP

// Handler returns the scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and latency labelled by the chi route pattern,
// keeping label cardinality bounded for paths with parameters.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: writer, status: http.StatusOK}

		next.ServeHTTP(wrapped, request)

		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		HTTPRequestsTotal.WithLabelValues(route, request.Method, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
