package diff

import (
	"fmt"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/fluxcd/graphdiff/pkg/element"
	gdmetrics "github.com/fluxcd/graphdiff/pkg/metrics"
)

// Service is what an Engine offers, so that it can be wrapped.
type Service interface {
	Diff(original, revised interface{}) (element.Element, error)
	Compare(a, b interface{}) bool
}

var _ Service = &Engine{}

// Middleware is a service-domain middleware.
type Middleware func(Service) Service

// LoggingMiddleware returns a middleware that logs every call,
// including its result and duration.
func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{
			next:   next,
			logger: logger,
		}
	}
}

type loggingMiddleware struct {
	next   Service
	logger log.Logger
}

func (mw loggingMiddleware) Diff(original, revised interface{}) (res element.Element, err error) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "Diff",
			"type", fmt.Sprintf("%T", original),
			"status", status(res),
			"err", err,
			"took", time.Since(begin),
		)
	}(time.Now())
	return mw.next.Diff(original, revised)
}

func (mw loggingMiddleware) Compare(a, b interface{}) (equal bool) {
	defer func(begin time.Time) {
		mw.logger.Log(
			"method", "Compare",
			"type", fmt.Sprintf("%T", a),
			"equal", equal,
			"took", time.Since(begin),
		)
	}(time.Now())
	return mw.next.Compare(a, b)
}

// InstrumentingMiddleware returns a middleware that observes the
// duration and result of every call.
func InstrumentingMiddleware(m Metrics) Middleware {
	return func(next Service) Service {
		return instrumentingMiddleware{
			next: next,
			m:    m,
		}
	}
}

type instrumentingMiddleware struct {
	next Service
	m    Metrics
}

func (mw instrumentingMiddleware) Diff(original, revised interface{}) (res element.Element, err error) {
	defer func(begin time.Time) {
		mw.m.Duration.With(
			gdmetrics.LabelMethod, gdmetrics.MethodDiff,
			gdmetrics.LabelSuccess, fmt.Sprint(err == nil),
		).Observe(time.Since(begin).Seconds())
		if err == nil {
			mw.m.Results.With(
				gdmetrics.LabelMethod, gdmetrics.MethodDiff,
				gdmetrics.LabelStatus, status(res),
			).Add(1)
		}
	}(time.Now())
	return mw.next.Diff(original, revised)
}

func (mw instrumentingMiddleware) Compare(a, b interface{}) (equal bool) {
	defer func(begin time.Time) {
		mw.m.Duration.With(
			gdmetrics.LabelMethod, gdmetrics.MethodCompare,
			gdmetrics.LabelSuccess, "true",
		).Observe(time.Since(begin).Seconds())
		s := element.Modified
		if equal {
			s = element.Equal
		}
		mw.m.Results.With(
			gdmetrics.LabelMethod, gdmetrics.MethodCompare,
			gdmetrics.LabelStatus, s.String(),
		).Add(1)
	}(time.Now())
	return mw.next.Compare(a, b)
}

func status(e element.Element) string {
	if e == nil {
		return ""
	}
	return e.Status().String()
}
