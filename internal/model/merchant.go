package model

import "time"

// UnknownMerchant is the sentinel merchant name meaning "no merchant".
const UnknownMerchant = "Unknown"

// Merchant is a normalized merchant name shared across transactions.
type Merchant struct {
	CreatedAt time.Time
	Name      string
	ID        int64
}

// IsUnknownMerchant reports whether name means the merchant could not be identified.
func IsUnknownMerchant(name string) bool {
	return name == "" || name == UnknownMerchant
}
