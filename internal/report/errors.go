package report

import "errors"

// ErrDashboardBind is returned when the dashboard cannot listen on its
// address. It aborts the run.
var ErrDashboardBind = errors.New("cannot bind dashboard address")
