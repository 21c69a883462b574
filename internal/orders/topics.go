package orders

const (
	TopicOrderPlaced = "storefront.order.placed"
)

// Kunci partisi = order_id, supaya semua event satu order tetap berurutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
