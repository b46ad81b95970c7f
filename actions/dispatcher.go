package actions

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ChintuIdrive/host-health-watchdog/dto"
)

// Dispatcher sends one alert to every channel. Channels are independent:
// each runs in its own goroutine and a failure in one never stops another.
type Dispatcher struct {
	formatter *AlertFormatter
	channels  []Channel
	logger    *zap.Logger
}

func NewDispatcher(formatter *AlertFormatter, channels []Channel, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		formatter: formatter,
		channels:  channels,
		logger:    logger,
	}
}

// NotifyAll never returns an error; per-channel failures are logged and
// reported as false. Sends already started are not cancelled with ctx, they
// complete or hit SendTimeout.
func (d *Dispatcher) NotifyAll(ctx context.Context, event dto.AlertEvent) dto.DispatchResult {
	subject := d.formatter.Subject()
	body := d.formatter.Body(event.Snapshot)
	sendCtx := context.WithoutCancel(ctx)

	outcomes := make([]bool, len(d.channels))
	var g errgroup.Group
	for i, channel := range d.channels {
		g.Go(func() error {
			outcomes[i] = d.send(sendCtx, channel, subject, body)
			return nil
		})
	}
	_ = g.Wait()

	result := make(dto.DispatchResult, len(d.channels))
	for i, channel := range d.channels {
		result[channel.Name()] = outcomes[i]
	}
	return result
}

func (d *Dispatcher) send(ctx context.Context, channel Channel, subject, body string) (ok bool) {
	logger := d.logger.With(zap.String("channel", channel.Name()))
	if !channel.Enabled() {
		logger.Debug("channel not enabled; skipping alert")
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("alert send panicked", zap.Any("panic", r), zap.Stack("stack"))
			ok = false
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, SendTimeout)
	defer cancel()

	if err := channel.Send(ctx, subject, body); err != nil {
		logger.Error("failed to send alert", zap.Error(err))
		return false
	}
	logger.Info("alert sent")
	return true
}
