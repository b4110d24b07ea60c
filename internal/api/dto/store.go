package dto

type StoreResponse struct {
	LocationID int64   `json:"location_id"`
	Store      string  `json:"store"`
	Code       string  `json:"code"`
	Region     string  `json:"region"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

type ListStoresResponse struct {
	Stores []StoreResponse `json:"stores"`
}

type ListRegionsResponse struct {
	Regions []string `json:"regions"`
}
