package orders

type Status string

const (
	StatusPending Status = "Pending"
	StatusFailed  Status = "Failed"
)

// Failed is final; Repo.MarkFailed checks transitions against this map.
var validNextStatus = map[Status]map[Status]bool{
	StatusPending: {StatusFailed: true},
	StatusFailed:  {},
}

func CanTransition(from, to Status) bool {
	return validNextStatus[from][to]
}

// Phase is how far a single checkout attempt got.
type Phase string

const (
	PhaseReceived         Phase = "Received"
	PhaseStockValidated   Phase = "StockValidated"
	PhaseOrderPersisted   Phase = "OrderPersisted"
	PhaseLinesPersisted   Phase = "LinesPersisted"
	PhaseStockCommitted   Phase = "StockCommitted"
	PhaseCacheInvalidated Phase = "CacheInvalidated"
	PhaseNotificationSent Phase = "NotificationSent"
	PhaseRejected         Phase = "Rejected"
	PhaseFailed           Phase = "Failed"
)

// Rejected is only reachable before anything was written; Failed only after.
var validNextPhase = map[Phase]map[Phase]bool{
	PhaseReceived:         {PhaseStockValidated: true, PhaseRejected: true},
	PhaseStockValidated:   {PhaseOrderPersisted: true, PhaseFailed: true},
	PhaseOrderPersisted:   {PhaseLinesPersisted: true, PhaseFailed: true},
	PhaseLinesPersisted:   {PhaseStockCommitted: true, PhaseFailed: true},
	PhaseStockCommitted:   {PhaseCacheInvalidated: true, PhaseFailed: true},
	PhaseCacheInvalidated: {PhaseNotificationSent: true, PhaseFailed: true},
	PhaseNotificationSent: {},
	PhaseRejected:         {},
	PhaseFailed:           {},
}

func CanAdvance(from, to Phase) bool {
	return validNextPhase[from][to]
}

// Terminal phases end an attempt.
func (p Phase) Terminal() bool {
	return len(validNextPhase[p]) == 0
}
