// Package metrics collects Prometheus metrics for the account, recipe and
// HTTP layers and exposes them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tech-arch1tect/recipemanager/api/apierror"
)

const namespace = "recipemanager"

// Collector records application metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	registrations   *prometheus.CounterVec
	logins          *prometheus.CounterVec
	tokensIssued    *prometheus.CounterVec
	mailsSent       *prometheus.CounterVec
	recipeMutations *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Total number of registration attempts.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Total number of login attempts.",
		}, []string{"result"}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Total number of tokens issued, by token type.",
		}, []string{"type"}),
		mailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mails_sent_total",
			Help:      "Total number of emails handed to the mail driver.",
		}, []string{"kind", "result"}),
		recipeMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipe_mutations_total",
			Help:      "Total number of recipe create, update and delete attempts.",
		}, []string{"op", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.tokensIssued,
		c.mailsSent,
		c.recipeMutations,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

func (c *Collector) RecordRegistration(result string) {
	if c == nil {
		return
	}
	c.registrations.WithLabelValues(result).Inc()
}

func (c *Collector) RecordLogin(result string) {
	if c == nil {
		return
	}
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordTokenIssued(tokenType string) {
	if c == nil {
		return
	}
	c.tokensIssued.WithLabelValues(tokenType).Inc()
}

func (c *Collector) RecordMail(kind, result string) {
	if c == nil {
		return
	}
	c.mailsSent.WithLabelValues(kind, result).Inc()
}

func (c *Collector) RecordRecipeMutation(op, result string) {
	if c == nil {
		return
	}
	c.recipeMutations.WithLabelValues(op, result).Inc()
}

func (c *Collector) RecordHTTPRequest(method, path string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Middleware records every request under its route template, so /recipes/1
// and /recipes/2 share one series.
func (c *Collector) Middleware(skipPaths ...string) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, ok := skip[ctx.Request().URL.Path]; ok || c == nil {
				return next(ctx)
			}

			start := time.Now()
			err := next(ctx)

			status := ctx.Response().Status
			if err != nil && !ctx.Response().Committed {
				status = apierror.From(err).Status
			}

			path := ctx.Path()
			if path == "" {
				path = "unmatched"
			}

			c.RecordHTTPRequest(ctx.Request().Method, path, status, time.Since(start))
			return err
		}
	}
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
