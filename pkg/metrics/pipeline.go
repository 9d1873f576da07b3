package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records throughput of the order processing pipeline.
type PipelineMetrics struct {
	ordersCompleted      *prometheus.CounterVec
	paymentFailures      *prometheus.CounterVec
	fulfillmentDispatch  *prometheus.CounterVec
	webhooksReconciled   *prometheus.CounterVec
	notificationFailures prometheus.Counter
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	ordersCompleted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_completed_total",
		Help: "Orders marked completed, by checkout intent type.",
	}, []string{"intent_type"})
	paymentFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_payment_failures_total",
		Help: "Order completions rejected by the payment provider.",
	}, []string{"intent_type"})
	fulfillmentDispatch := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_dispatched_total",
		Help: "Order items dispatched for fulfillment, by method.",
	}, []string{"method"})
	webhooksReconciled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "external_fulfillment_webhooks_total",
		Help: "External fulfillment webhooks reconciled, by platform.",
	}, []string{"platform"})
	notificationFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_notification_failures_total",
		Help: "Admin fulfillment notifications that failed to send.",
	})
	reg.MustRegister(ordersCompleted, paymentFailures, fulfillmentDispatch, webhooksReconciled, notificationFailures)
	return &PipelineMetrics{
		ordersCompleted:      ordersCompleted,
		paymentFailures:      paymentFailures,
		fulfillmentDispatch:  fulfillmentDispatch,
		webhooksReconciled:   webhooksReconciled,
		notificationFailures: notificationFailures,
	}
}

// IncOrderCompleted counts a completed order.
func (p *PipelineMetrics) IncOrderCompleted(intentType string) {
	if p == nil || p.ordersCompleted == nil {
		return
	}
	p.ordersCompleted.WithLabelValues(normalizeLabel(intentType)).Inc()
}

// IncPaymentFailure counts a provider-rejected completion attempt.
func (p *PipelineMetrics) IncPaymentFailure(intentType string) {
	if p == nil || p.paymentFailures == nil {
		return
	}
	p.paymentFailures.WithLabelValues(normalizeLabel(intentType)).Inc()
}

// IncFulfillmentDispatched counts an item handed to a fulfillment strategy.
func (p *PipelineMetrics) IncFulfillmentDispatched(method string) {
	if p == nil || p.fulfillmentDispatch == nil {
		return
	}
	p.fulfillmentDispatch.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncWebhookReconciled counts a reconciled platform webhook.
func (p *PipelineMetrics) IncWebhookReconciled(platform string) {
	if p == nil || p.webhooksReconciled == nil {
		return
	}
	p.webhooksReconciled.WithLabelValues(normalizeLabel(platform)).Inc()
}

// IncNotificationFailure counts a failed admin notification.
func (p *PipelineMetrics) IncNotificationFailure() {
	if p == nil || p.notificationFailures == nil {
		return
	}
	p.notificationFailures.Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}
