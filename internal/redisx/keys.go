package redisx

import "time"

const (
	KeyCategories      = "catalog:categories"
	KeyPopularProducts = "catalog:products:popular"
	KeyLimitedProducts = "catalog:products:limited"
)

// ProductListKeys are dropped whenever a product changes.
var ProductListKeys = []string{KeyPopularProducts, KeyLimitedProducts}

var TTLCatalog = 5 * time.Minute
