package services

import "errors"

// User-facing business errors. Handlers render the message text as-is, so the
// strings here are exactly what buyers and sellers see.
var (
	ErrMissingListing      = errors.New("Missing listing_id.")
	ErrQuantityNotPositive = errors.New("Quantity must be positive.")
	ErrListingNotFound     = errors.New("Listing not found.")
	ErrListingUnavailable  = errors.New("Listing is not available.")
	ErrExceedsInventory    = errors.New("Requested quantity exceeds available inventory.")
	ErrCartItemNotFound    = errors.New("Cart item not found.")

	ErrCartEmpty           = errors.New("Your cart is empty.")
	ErrUserNotFound        = errors.New("User not found.")
	ErrInsufficientBalance = errors.New("Insufficient balance to complete checkout.")

	ErrInvalidStatus = errors.New("Invalid status")
	ErrItemNotFound  = errors.New("Order item not found or permission denied.")
)
