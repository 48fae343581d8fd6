package ws

import "expvar"

var (
	metricConnections = expvar.NewInt("ws_connections")
	metricMessages    = expvar.NewInt("ws_messages_total")
	metricErrors      = expvar.NewInt("ws_errors_total")
)
