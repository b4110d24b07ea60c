package dto

type DemandItem struct {
	LocationID int64 `json:"location_id" validate:"required,gt=0"`
	// Pointer so an omitted value is rejected instead of read as zero.
	Boxes *int `json:"boxes" validate:"required,gte=0,lte=1000000"`
}

type SetDemandsRequest struct {
	Demands []DemandItem `json:"demands" validate:"required,min=1,dive"`
}

type SetDemandsResponse struct {
	Updated int `json:"updated"`
}

type UnmatchedRow struct {
	Store  string  `json:"store"`
	Code   string  `json:"code"`
	Region string  `json:"region"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

type ImportDemandResponse struct {
	Updated   int            `json:"updated"`
	Unmatched []UnmatchedRow `json:"unmatched"`
}
