package domain

import "time"

// Order is a row of the restaurant order table, as read by connectivity checks.
type Order struct {
	OrderID     string    `json:"order_id"`
	TokenNumber int64     `json:"token_number"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
