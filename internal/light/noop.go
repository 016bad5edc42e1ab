package light

import "log/slog"

// noop implements Driver without touching hardware
type noop struct {
	logger *slog.Logger
}

func newNoop(logger *slog.Logger) *noop {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &noop{logger: logger}
}

func (n *noop) SetSleep(active bool) error {
	n.logger.Debug("PWM driver not available (no-op)", "op", "sleep", "active", active)
	return nil
}

func (n *noop) SetFrequency(hz float64) error {
	n.logger.Debug("PWM driver not available (no-op)", "op", "frequency", "hz", hz)
	return nil
}

func (n *noop) SetChannel(channel int, duty float64) error {
	n.logger.Debug("PWM driver not available (no-op)", "op", "channel", "channel", channel, "duty", duty)
	return nil
}

func (n *noop) SetAllChannels(duty float64) error {
	n.logger.Debug("PWM driver not available (no-op)", "op", "all_channels", "duty", duty)
	return nil
}

func (n *noop) SetColor(r, g, b float64) error {
	n.logger.Debug("PWM driver not available (no-op)", "op", "color", "r", r, "g", g, "b", b)
	return nil
}
