package domain

const EventTypeOrderPaid = "ORDER_PAID"

type OrderEvent struct {
	Type  string `json:"type"`
	Order *Order `json:"order"`
}
