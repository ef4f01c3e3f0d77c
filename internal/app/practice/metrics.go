package practice

import "expvar"

var (
	metricSignupsTotal        = expvar.NewInt("practice_signups_total")
	metricSignupRejectedTotal = expvar.NewInt("practice_signup_rejected_total")
	metricWithdrawalsTotal    = expvar.NewInt("practice_withdrawals_total")
	metricPromotionsTotal     = expvar.NewInt("practice_promotions_total")
	metricCarryoverMovedTotal = expvar.NewInt("practice_carryover_moved_total")
	metricWriteConflictsTotal = expvar.NewInt("practice_write_conflicts_total")
)
