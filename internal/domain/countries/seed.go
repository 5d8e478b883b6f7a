package countries

// GroupSeed is one entry of the country group dataset.
type GroupSeed struct {
	Name                          string        `json:"name"`
	RecommendedDiscountPercentage float64       `json:"recommendedDiscountPercentage"`
	Countries                     []CountrySeed `json:"countries"`
}

type CountrySeed struct {
	Name string `json:"countryName"`
	Code string `json:"country"`
}
