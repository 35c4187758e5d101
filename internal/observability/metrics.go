package observability

// Fulfillment instruments.
const (
	// labels: category, decision
	MItemDecisions MetricKey = "fulfillment_item_decisions_total"
	// labels: kind, sink, outcome
	MNotificationsDelivered MetricKey = "notifications_delivered_total"
)

// RED instruments shared by every entrypoint and outbound call.
const (
	MUsecaseRequests MetricKey = "usecase_requests_total"
	MUsecaseDuration MetricKey = "usecase_duration_seconds"

	MHTTPRequests        MetricKey = "http_requests_total"
	MHTTPRequestDuration MetricKey = "http_request_duration_seconds"

	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
)
