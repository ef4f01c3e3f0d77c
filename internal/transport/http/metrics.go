package httptransport

import "expvar"

var (
	metricSignupRequestsTotal   = expvar.NewInt("http_signup_requests_total")
	metricWithdrawRequestsTotal = expvar.NewInt("http_withdraw_requests_total")
	metricRegisterRequestsTotal = expvar.NewInt("http_register_requests_total")
	metricHandlerErrorsTotal    = expvar.NewInt("http_handler_errors_total")
)
