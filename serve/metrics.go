package serve

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// derefRequests counts dereference requests by negotiated response format.
	// Labels: format (turtle, json-ld, html)
	derefRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "semscrub",
		Subsystem: "deref",
		Name:      "requests_total",
		Help:      "Total dereference requests by negotiated response format",
	}, []string{"format"})

	// storeErrors counts failed round trips to the SPARQL store.
	storeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "semscrub",
		Subsystem: "deref",
		Name:      "store_errors_total",
		Help:      "Total SPARQL store failures while answering dereference requests",
	})
)
