package services

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the listing lifecycle counters.
type Metrics struct {
	Created       prometheus.Counter
	WithImage     prometheus.Counter
	Completed     prometheus.Counter
	ImageRejected prometheus.Counter
}

// NewMetrics creates the counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swapboard",
			Name:      "listings_created_total",
			Help:      "Listings created.",
		}),
		WithImage: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swapboard",
			Name:      "listings_with_image_total",
			Help:      "Listings created with a stored image.",
		}),
		Completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swapboard",
			Name:      "listings_complete_requests_total",
			Help:      "Complete requests handled, including unknown and already completed ids.",
		}),
		ImageRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swapboard",
			Name:      "uploads_ignored_total",
			Help:      "Uploaded files dropped because of a missing or disallowed extension.",
		}),
	}
	reg.MustRegister(m.Created, m.WithImage, m.Completed, m.ImageRejected)
	return m
}
