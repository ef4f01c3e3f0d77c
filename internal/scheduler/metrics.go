package scheduler

import "expvar"

var (
	metricJobsArmedTotal   = expvar.NewInt("scheduler_jobs_armed_total")
	metricJobsSkippedTotal = expvar.NewInt("scheduler_jobs_skipped_total")
	metricJobsFiredTotal   = expvar.NewInt("scheduler_jobs_fired_total")
	metricJobsFailedTotal  = expvar.NewInt("scheduler_jobs_failed_total")
	metricJobsPending      = expvar.NewInt("scheduler_jobs_pending")
)
