package pipeline

import "github.com/socratic-labs/tutor/observability"

// Pipeline event types emitted during a request traversal.
const (
	EventReceived          observability.EventType = "pipeline.received"
	EventClassified        observability.EventType = "pipeline.classified"
	EventPolicyBlock       observability.EventType = "pipeline.policy.block"
	EventPolicyRewrite     observability.EventType = "pipeline.policy.rewrite"
	EventProviderComplete  observability.EventType = "pipeline.provider.complete"
	EventProviderFailed    observability.EventType = "pipeline.provider.failed"
	EventSanitized         observability.EventType = "pipeline.sanitized"
	EventHistoryLoadFailed observability.EventType = "pipeline.history.load_failed"
	EventPersistFailed     observability.EventType = "pipeline.persist.failed"
	EventCompleted         observability.EventType = "pipeline.completed"
)
