package tools

import (
	"context"
	"time"

	"github.com/effective-security/toolhub/pkg/metricskey"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolhub", "tools")

// Observed returns a tool that reports call duration and outcome metrics,
// and notifies the callbacks around every call.
func Observed(t ITool, callbacks ...Callback) ITool {
	if o, ok := t.(*observed); ok {
		t = o.inner
	}
	return &observed{inner: t, callbacks: callbacks}
}

type observed struct {
	inner     ITool
	callbacks []Callback
}

func (o *observed) Unwrap() ITool {
	return o.inner
}

func (o *observed) Name() string {
	return o.inner.Name()
}

func (o *observed) Description() string {
	return o.inner.Description()
}

func (o *observed) Parameters() any {
	return o.inner.Parameters()
}

func (o *observed) Call(ctx context.Context, input string) (string, error) {
	name := o.inner.Name()
	started := time.Now()
	defer metricskey.PerfToolCall.MeasureSince(started, name)

	for _, cb := range o.callbacks {
		cb.OnToolStart(ctx, o, input)
	}

	out, err := o.inner.Call(ctx, input)
	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.DEBUG, "tool", name, "err", err.Error())
		for _, cb := range o.callbacks {
			cb.OnToolError(ctx, o, input, err)
		}
		return "", err
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, name)
	for _, cb := range o.callbacks {
		cb.OnToolEnd(ctx, o, input, out)
	}
	return out, nil
}
