// Package metrics provides helpers for emitting auth and account metrics.
package metrics

import (
	"time"

	apperrors "github.com/taponn/taponn-api/internal/errors"
	"github.com/taponn/taponn-api/internal/observability/statsd"
)

// EmitAccountOp emits the standard counter/timing pair for an account
// lifecycle operation (login, register, logout, profile_update). Failures
// are tagged with a normalized error class so dashboards can split
// transport flakiness from credential rejections.
func EmitAccountOp(sink statsd.Sink, op string, duration time.Duration, err error) {
	if sink == nil {
		return
	}

	tags := map[string]string{"op": op}
	if err != nil {
		tags["result"] = "error"
		tags["error_class"] = apperrors.Classify(err)
	} else {
		tags["result"] = "ok"
	}

	sink.Count("account.op", 1, tags)
	sink.Timing("account.op.duration", duration, tags)
}

// EmitDemoFallback counts a demo-account synthesis after a failed remote
// registration, tagged by the class of remote failure that triggered it.
func EmitDemoFallback(sink statsd.Sink, err error) {
	if sink == nil {
		return
	}
	sink.Count("account.demo_fallback", 1, map[string]string{
		"error_class": apperrors.Classify(err),
	})
}

// EmitSessionRestore counts the outcome of a startup session restore.
func EmitSessionRestore(sink statsd.Sink, outcome string) {
	if sink == nil {
		return
	}
	sink.Count("session.restore", 1, map[string]string{"outcome": outcome})
}
