package shared

// Asynq task type names and queue assignments shared between the API and
// the worker.
const (
	TypeStockSyncVariant    = "stock:sync_variant"
	TypeStalePosDraftReport = "order:stale_pos_draft_report"

	QueueStock = "stock"
	QueueLow   = "low"
)

// StockSyncPayload is enqueued after an order transaction commits so the
// worker can refresh cached availability for the touched variant.
type StockSyncPayload struct {
	VariantID string `json:"variantId"`
	Source    string `json:"source"` // SALE, ORDER_CANCELLED, RETURN_APPROVED, POS_SALE
}
