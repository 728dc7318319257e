package bus

import "github.com/zeusync/suika/internal/core/observability/log"

// LogObserver reports failed deliveries at warn level and, when debug is
// enabled, every delivery with its fan-out and latency.
type LogObserver struct {
	logger log.Log
}

var _ EventBusObserver = (*LogObserver)(nil)

func NewLogObserver(logger log.Log) *LogObserver {
	return &LogObserver{logger: logger.Named("bus")}
}

func (o *LogObserver) OnPublish(string, Event) {}

func (o *LogObserver) OnDelivered(eventType string, handlers int, err error, durationMicros int64) {
	if err != nil {
		o.logger.Warn("event handlers failed",
			log.String("type", eventType),
			log.Int("handlers", handlers),
			log.Err(err),
		)
		return
	}
	if o.logger.GetLevel() == log.LevelDebug {
		o.logger.Debug("event delivered",
			log.String("type", eventType),
			log.Int("handlers", handlers),
			log.Int64("micros", durationMicros),
		)
	}
}
