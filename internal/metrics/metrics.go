// Package metrics holds the process-wide Prometheus registry and ledger counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	OrdersCreated = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pixcards",
		Name:      "orders_created_total",
		Help:      "Orders created, by initial status.",
	}, []string{"status"})

	OrderTransitions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pixcards",
		Name:      "order_transitions_total",
		Help:      "Committed order status changes, by target status.",
	}, []string{"to"})

	OutOfStock = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "pixcards",
		Name:      "allocation_out_of_stock_total",
		Help:      "Checkouts rejected because inventory ran out.",
	})

	WalletMovements = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pixcards",
		Name:      "wallet_movements_total",
		Help:      "Committed wallet entries, by reason.",
	}, []string{"reason"})

	VouchersRedeemed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "pixcards",
		Name:      "vouchers_redeemed_total",
		Help:      "Vouchers redeemed.",
	})

	VoucherRejections = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pixcards",
		Name:      "voucher_rejections_total",
		Help:      "Voucher redemptions refused, by reason.",
	}, []string{"reason"})

	OutboxPublished = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "pixcards",
		Name:      "outbox_published_total",
		Help:      "Outbox events handed to the broker.",
	})

	OutboxFailed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "pixcards",
		Name:      "outbox_failed_total",
		Help:      "Outbox publish attempts that failed.",
	})
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
