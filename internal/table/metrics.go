package table

import "expvar"

var (
	metricHandsPlayed   = expvar.NewInt("table_hands_played_total")
	metricHandsAborted  = expvar.NewInt("table_hands_aborted_total")
	metricTurnTimeouts  = expvar.NewInt("table_turn_timeouts_total")
	metricStaleTimers   = expvar.NewInt("table_stale_timer_events_total")
	metricActionsTotal  = expvar.NewInt("table_actions_total")
	metricActionErrors  = expvar.NewInt("table_action_errors_total")
	metricTablesRunning = expvar.NewInt("tables_running")
)
