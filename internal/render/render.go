package render

import (
	"fmt"
	"html/template"
	"io"

	"github.com/maltedev/amazon-search-ranker/internal/models"
	"github.com/maltedev/amazon-search-ranker/internal/ranking"
)

// Card is what the result grid shows for a single product.
type Card struct {
	ImageURL        string  `json:"image_url"`
	Name            string  `json:"name"`
	ProductURL      string  `json:"product_url"`
	Rank            int     `json:"rank"`
	Total           int     `json:"total"`
	Score           float64 `json:"customized_score"`
	Popularity      float64 `json:"popularity_norm"`
	Stars           float64 `json:"stars"`
	Reviews         int     `json:"review_count"`
	DiscountedPrice float64 `json:"discounted_price"`
	OriginalPrice   float64 `json:"original_price"`
	DiscountPercent float64 `json:"discount_percent"`
}

func NewCard(r models.RankedRecord) Card {
	return Card{
		ImageURL:        r.ImageURL,
		Name:            r.Name,
		ProductURL:      r.ProductURL,
		Rank:            r.Rank,
		Total:           r.Total,
		Score:           r.CustomizedScore,
		Popularity:      r.PopularityNorm,
		Stars:           r.Stars,
		Reviews:         r.ReviewCount,
		DiscountedPrice: r.DiscountedPrice,
		OriginalPrice:   r.OriginalPrice,
		DiscountPercent: r.DiscountPercent,
	}
}

func Cards(ranked []models.RankedRecord) []Card {
	cards := make([]Card, len(ranked))
	for i, r := range ranked {
		cards[i] = NewCard(r)
	}
	return cards
}

// HeaderCurrency returns the currency of the first record that has one.
func HeaderCurrency(ranked []models.RankedRecord) string {
	for _, r := range ranked {
		if r.HasKnownCurrency() {
			return r.Currency
		}
	}
	return models.UnknownCurrency
}

type Page struct {
	Term     string
	Currency string
	Weights  ranking.Weights
	Order    ranking.Order
	Cards    []Card
}

func NewPage(term string, weights ranking.Weights, order ranking.Order, ranked []models.RankedRecord) Page {
	return Page{
		Term:     term,
		Currency: HeaderCurrency(ranked),
		Weights:  weights,
		Order:    order,
		Cards:    Cards(ranked),
	}
}

var pageTemplate = template.Must(template.New("results").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>{{.Term}}</title>
<style>
.grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(220px,1fr));gap:1rem}
.card{border:1px solid #ddd;border-radius:6px;padding:.75rem}
.card img{max-width:100%;height:160px;object-fit:contain}
.old{text-decoration:line-through;color:#888}
</style>
</head>
<body>
<h1>{{.Term}}</h1>
<p>Prices in {{.Currency}} &middot; popularity {{.Weights.Popularity}} &middot; price {{.Weights.Price}} &middot; discount {{.Weights.Discount}} &middot; {{.Order}}</p>
<div class="grid">
{{- range .Cards}}
<div class="card">
<a href="{{.ProductURL}}"><img src="{{.ImageURL}}" alt="{{.Name}}"></a>
<h3><a href="{{.ProductURL}}">{{.Name}}</a></h3>
<p>#{{.Rank}} of {{.Total}} &middot; score {{money .Score}}</p>
<p>popularity {{money .Popularity}} &middot; {{.Stars}} stars ({{.Reviews}} reviews)</p>
<p>{{money .DiscountedPrice}}{{if gt .DiscountPercent 0.0}} <span class="old">{{money .OriginalPrice}}</span> -{{money .DiscountPercent}}%{{end}}</p>
</div>
{{- end}}
</div>
</body>
</html>
`))

// HTML writes the card grid as a standalone page.
func HTML(w io.Writer, page Page) error {
	if err := pageTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("failed to render results: %w", err)
	}
	return nil
}
