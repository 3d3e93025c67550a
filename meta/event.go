package meta

// 合约事件
const (
	EventProjectInitialized   = "project_initialized"
	EventPledgedAmountChanged = "pledged_amount_changed"
	EventTargetReached        = "target_reached"
	EventStateChanged         = "state_changed"
	EventAnnotationSubmitted  = "annotation_submitted"
	EventRefundClaimed        = "refund_claimed"
	EventWithdrawn            = "withdrawn"
)

type Event struct {
	Topic     string                 `json:"topic"`
	ProjectID uint32                 `json:"project_id"`
	Data      map[string]interface{} `json:"data"`
	TxHash    string                 `json:"tx_hash"`
	Timestamp uint64                 `json:"timestamp"`
}
