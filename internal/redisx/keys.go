package redisx

import "time"

const (
	// Reference data: ref:areas / ref:categories -> JSON array
	KeyAreas      = "ref:areas"
	KeyCategories = "ref:categories"
)

var TTLRefData = 10 * time.Minute
