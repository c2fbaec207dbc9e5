package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// decisionCounter counts access decisions by outcome (allow, bypass, deny).
var decisionCounter = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "access_decisions_total",
		Help: "Number of access decisions, differentiated by outcome.",
	},
	[]string{"outcome"},
)
