package dto

// ErrorResponse carries a single human readable message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse lists rejected fields.
type ValidationErrorResponse struct {
	Errors map[string]string `json:"errors"`
}

// StockErrorResponse names the product that blocked the request.
type StockErrorResponse struct {
	Error       string `json:"error"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Available   int    `json:"available"`
	Requested   int    `json:"requested"`
}

// Pagination describes a page of a listing.
type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}
