package pubsub

import "expvar"

var (
	metricPublished     = expvar.NewInt("nats_published_total")
	metricPublishErrors = expvar.NewInt("nats_publish_errors_total")
)
