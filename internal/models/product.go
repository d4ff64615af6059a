package models

// UnknownCurrency marks a price whose currency symbol could not be found.
const UnknownCurrency = "Unknown"

// ProductRecord is one product scraped from a search result page.
type ProductRecord struct {
	Name            string  `json:"name"`
	Stars           float64 `json:"stars"`
	ReviewCount     int     `json:"review_count"`
	DiscountedPrice float64 `json:"discounted_price"`
	OriginalPrice   float64 `json:"original_price"`
	Currency        string  `json:"currency"`
	ImageURL        string  `json:"image_url"`
	ProductURL      string  `json:"product_url"`
}

// ScoredRecord carries the columns derived once the whole result set is known.
// The *Norm fields are min-max scaled to [0,100] relative to that set.
type ScoredRecord struct {
	ProductRecord

	DiscountPercent    float64 `json:"discount_percent"`
	PopularityScore    float64 `json:"popularity_score"`
	InversePrice       float64 `json:"inverse_price"`
	DiscountAmount     float64 `json:"discount_amount"`
	InversePriceNorm   float64 `json:"inverse_price_norm"`
	PopularityNorm     float64 `json:"popularity_norm"`
	DiscountAmountNorm float64 `json:"discount_amount_norm"`
}

// RankedRecord is a ScoredRecord placed in a ranking.
type RankedRecord struct {
	ScoredRecord

	CustomizedScore float64 `json:"customized_score"`
	Rank            int     `json:"rank"`
	Total           int     `json:"total"`
}

func (p *ProductRecord) HasKnownCurrency() bool {
	return p.Currency != "" && p.Currency != UnknownCurrency
}

// Validate reports the invariants a finalized record must hold.
func (p *ProductRecord) Validate() []string {
	var errors []string

	if p.Name == "" {
		errors = append(errors, "name is required")
	}

	if p.Stars < 0 || p.Stars > 5 {
		errors = append(errors, "stars out of range")
	}

	if p.ReviewCount < 0 {
		errors = append(errors, "negative review count")
	}

	if p.DiscountedPrice < 0 || p.OriginalPrice < 0 {
		errors = append(errors, "negative price")
	}

	if p.DiscountedPrice > p.OriginalPrice {
		errors = append(errors, "discounted price above original price")
	}

	return errors
}
