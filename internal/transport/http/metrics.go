package httptransport

import "expvar"

var (
	metricLobbyRequests = expvar.NewInt("http_lobby_requests_total")
	metricTableRequests = expvar.NewInt("http_table_requests_total")
	metricTableErrors   = expvar.NewInt("http_table_errors_total")
)
