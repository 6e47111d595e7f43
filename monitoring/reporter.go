// Package monitoring 提供错误上报
package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// Reporter forwards unexpected failures to Sentry. A nil or disabled
// Reporter only logs.
type Reporter struct {
	enabled bool
	logger  *zap.Logger
}

// NewReporter 初始化Sentry客户端，dsn为空时不上报
func NewReporter(dsn, environment string, logger *zap.Logger) (*Reporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reporter{logger: logger}
	if dsn == "" {
		return r, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	}); err != nil {
		return nil, err
	}
	r.enabled = true
	return r, nil
}

// Enabled 是否启用上报
func (r *Reporter) Enabled() bool {
	return r != nil && r.enabled
}

// CaptureError 上报错误
func (r *Reporter) CaptureError(err error, tags map[string]string) {
	if r == nil || err == nil {
		return
	}
	r.logger.Error("unexpected failure", zap.Error(err), zap.Any("tags", tags))
	if !r.enabled {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// CapturePanic 上报recover得到的panic
func (r *Reporter) CapturePanic(recovered interface{}, tags map[string]string) {
	if r == nil || recovered == nil {
		return
	}
	r.logger.Error("panic recovered", zap.Any("panic", recovered), zap.Any("tags", tags))
	if !r.enabled {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CurrentHub().Recover(recovered)
	})
}

// Flush waits for buffered events before shutdown.
func (r *Reporter) Flush(timeout time.Duration) {
	if !r.Enabled() {
		return
	}
	sentry.Flush(timeout)
}
