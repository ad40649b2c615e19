package model

// OrderLine is a single line of an order being quoted.
type OrderLine struct {
	ItemID     string  `json:"itemId"`
	CategoryID string  `json:"categoryId"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
}

// OrderContext carries everything the engine needs to know about an order.
// The customer id is optional; when absent, usage limits are enforced
// globally rather than per customer.
type OrderContext struct {
	OrderAmount float64     `json:"orderAmount"`
	CustomerID  *string     `json:"customerId,omitempty"`
	Items       []OrderLine `json:"items"`
}

// Quote pairs an eligible promotion with the discount it would yield.
type Quote struct {
	Promotion      Promotion `json:"promotion"`
	DiscountAmount float64   `json:"discountAmount"`
}

// QuoteRequest is the payload for requesting promotion quotes.
type QuoteRequest struct {
	Order OrderContext `json:"order"`

	// SortBy selects the quote ordering: "value" (default) sorts by the
	// promotion's raw discount value, "computed" by the computed amount.
	SortBy string `json:"sortBy,omitempty"`
}
