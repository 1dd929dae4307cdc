package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stockMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "consumables",
		Name:      "stock_mutations_total",
		Help:      "Stock mutations by operation and outcome.",
	}, []string{"operation", "outcome"})

	takenQuantity = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "consumables",
		Name:      "taken_quantity_total",
		Help:      "Sum of quantities taken.",
	})
)

const (
	opTake     = "take"
	opReverse  = "reverse"
	opSetStock = "set_stock"
)

// observeMutation 记录一次库存变更结果
func observeMutation(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrInvalidQuantity):
		outcome = "rejected"
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	stockMutations.WithLabelValues(op, outcome).Inc()
}
