package dialog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trialmatch_turns_total",
	Help: "Conversation turns by dispatched intent (plus intake_required rejections).",
}, []string{"intent"})
