package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  "error",
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrProductNotFound = ErrorResponse{
		Status:  "error",
		Error:   "product_not_found",
		Details: "Product with this id does not exist",
	}

	ErrStoreUnavailable = ErrorResponse{
		Status:  "error",
		Error:   "store_unavailable",
		Details: "Please try again later",
	}

	ErrInternal = ErrorResponse{
		Status:  "error",
		Error:   "internal_error",
		Details: "Internal server error",
	}
)
