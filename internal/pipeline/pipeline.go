// Package pipeline runs the ordered request-authorization gates. The
// historical middleware nesting is flattened into an explicit stage list
// executed by one driver, so ordering is fixed, visible in one place and
// unit-testable without the transport layer.
package pipeline

import "net/http"

// Stage is one gate of the pipeline. Intercept inspects the request before
// anything downstream runs; it may return a replacement request (to attach
// context) and reports whether processing continues. A stage that stops
// the pipeline must have written the response.
type Stage interface {
	Name() string
	Intercept(w http.ResponseWriter, r *http.Request) (*http.Request, bool)
}

// Observer is implemented by stages that need to see the final response
// status, such as the abuse gate's client-error accounting. Only stages
// whose Intercept passed observe the status; a stage never observes its
// own rejection.
type Observer interface {
	Observe(r *http.Request, status int)
}

// Chain is an ordered stage list. Order is fixed at construction and
// strictly sequential per request.
type Chain struct {
	stages []Stage
}

// New builds a chain running stages in the given order.
func New(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// statusWriter records the status code written downstream.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Then wraps next with the chain. Stages run in order; the first to reject
// short-circuits the rest. After the response is produced, every stage
// that passed observes the final status.
func (c *Chain) Then(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		passed := make([]Stage, 0, len(c.stages))
		proceed := true
		for _, stage := range c.stages {
			var replaced *http.Request
			replaced, proceed = stage.Intercept(sw, r)
			if replaced != nil {
				r = replaced
			}
			if !proceed {
				break
			}
			passed = append(passed, stage)
		}
		if proceed {
			next.ServeHTTP(sw, r)
		}

		for _, stage := range passed {
			if o, ok := stage.(Observer); ok {
				o.Observe(r, sw.code)
			}
		}
	})
}
