package model

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles,omitempty"`
}

type CategoryRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type TransactionRequest struct {
	CategoryID  string `json:"category_id"`
	AmountCents int64  `json:"amount_cents"`
	Note        string `json:"note,omitempty"`
	OccurredOn  string `json:"occurred_on"` // YYYY-MM-DD
}
