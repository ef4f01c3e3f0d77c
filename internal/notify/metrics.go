package notify

import "expvar"

var (
	metricNotifySentTotal    = expvar.NewInt("notify_sent_total")
	metricNotifyFailedTotal  = expvar.NewInt("notify_failed_total")
	metricNotifySkippedTotal = expvar.NewInt("notify_skipped_total")
)
