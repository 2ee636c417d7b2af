package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	tierLocal      = "local"
	tierNationwide = "nationwide"
	tierError      = "error"
)

var searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trialmatch_registry_searches_total",
	Help: "Registry searches by outcome tier (local, nationwide, error).",
}, []string{"tier"})
