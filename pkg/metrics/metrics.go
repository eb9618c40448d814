// Package metrics expone los contadores e histogramas Prometheus del servicio.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Pedidos creados",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Pedidos cancelados con devolución de stock",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Pedidos rechazados por motivo",
	}, []string{"reason"})

	PurchasesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_created_total",
		Help: "Órdenes de compra creadas",
	})

	PurchaseReceiptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_receipts_total",
		Help: "Recepciones de compra por estado resultante",
	}, []string{"status"})

	InventoryMovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_movements_total",
		Help: "Movimientos de inventario escritos en el ledger",
	}, []string{"type"})

	DocumentNumberRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "document_number_retries_total",
		Help: "Reintentos por colisión de número de documento",
	}, []string{"prefix"})

	WorkflowLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workflow_latency_seconds",
		Help:    "Duración de las operaciones transaccionales",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de peticiones HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Peticiones HTTP atendidas",
	}, []string{"method", "path", "status"})
)
