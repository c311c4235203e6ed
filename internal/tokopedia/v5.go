package tokopedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/httputil"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/models"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/platform"
)

// ProductV5Strategy calls the searchProductV5 gateway, the current
// (2025) search API. It is the most capable strategy and runs first in
// the chain.
type ProductV5Strategy struct {
	client *http.Client
}

func NewProductV5Strategy(client *http.Client) *ProductV5Strategy {
	return &ProductV5Strategy{client: client}
}

func (s *ProductV5Strategy) Name() string { return "v5" }

func (s *ProductV5Strategy) Execute(ctx context.Context, req platform.Request) (*platform.Result, error) {
	switch req.Type {
	case platform.SearchRequest, platform.TrendingRequest:
	default:
		return nil, fmt.Errorf("v5 strategy does not support request type %d", req.Type)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	body, err := gqlPayload(searchProductV5Query, map[string]any{
		"params": buildV5Params(req.Keyword, limit),
		"query":  req.Keyword,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", searchV5URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.MobileAppHeaders() {
		httpReq.Header[k] = v
	}

	resp, err := httputil.DoWithRetry(s.client, httpReq, 2)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("v5 response status %d", resp.StatusCode)
	}

	products, total, err := parseV5Response(respBody, limit)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("v5 returned no products (totalData %d)", total)
	}

	return &platform.Result{
		Products:  products,
		TotalData: total,
		Strategy:  s.Name(),
		Raw:       json.RawMessage(respBody),
	}, nil
}

type v5Response struct {
	Data struct {
		SearchProductV5 struct {
			Header struct {
				TotalData    int    `json:"totalData"`
				ResponseCode string `json:"responseCode"`
			} `json:"header"`
			Data struct {
				Products []v5Product `json:"products"`
			} `json:"data"`
		} `json:"searchProductV5"`
	} `json:"data"`
}

type v5Product struct {
	ID       flexString `json:"id"`
	Name     string     `json:"name"`
	URL      string     `json:"url"`
	MediaURL struct {
		Image    string `json:"image"`
		Image300 string `json:"image300"`
		Image700 string `json:"image700"`
	} `json:"mediaURL"`
	Shop struct {
		ID   flexString `json:"id"`
		Name string     `json:"name"`
		URL  string     `json:"url"`
		City string     `json:"city"`
	} `json:"shop"`
	Badge []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"badge"`
	Price struct {
		Text               string    `json:"text"`
		Number             int64     `json:"number"`
		Original           string    `json:"original"`
		DiscountPercentage flexFloat `json:"discountPercentage"`
	} `json:"price"`
	LabelGroups []struct {
		Position string `json:"position"`
		Title    string `json:"title"`
		Type     string `json:"type"`
	} `json:"labelGroups"`
	Category struct {
		Name string `json:"name"`
	} `json:"category"`
	Rating flexFloat `json:"rating"`
}

func parseV5Response(data []byte, limit int) ([]models.Product, int, error) {
	var resp v5Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, 0, fmt.Errorf("unmarshal v5 response: %w", err)
	}

	section := resp.Data.SearchProductV5
	wire := section.Data.Products
	if len(wire) > limit {
		wire = wire[:limit]
	}

	products := make([]models.Product, 0, len(wire))
	for _, wp := range wire {
		p := models.Product{
			ID:                 wp.ID.String(),
			Name:               wp.Name,
			Price:              wp.Price.Text,
			PriceRaw:           wp.Price.Number,
			OriginalPrice:      wp.Price.Original,
			DiscountPercentage: wp.Price.DiscountPercentage.Int(),
			URL:                wp.URL,
			Category:           wp.Category.Name,
			Rating:             wp.Rating.Float64(),
			ScrapedAt:          time.Now(),
			Strategy:           "v5",
			Shop: models.Shop{
				ID:   wp.Shop.ID.Int64(),
				Name: wp.Shop.Name,
				URL:  wp.Shop.URL,
				City: wp.Shop.City,
			},
		}

		if wp.MediaURL.Image700 != "" {
			p.ImageURL = wp.MediaURL.Image700
		} else {
			p.ImageURL = wp.MediaURL.Image
		}
		if p.ID == "" {
			p.ID = models.SyntheticID(p.Name, p.Shop.Name, p.URL)
		}

		for _, b := range wp.Badge {
			p.Badges = append(p.Badges, models.Badge{Title: b.Title, URL: b.URL})
		}
		for _, lg := range wp.LabelGroups {
			p.LabelGroups = append(p.LabelGroups, models.LabelGroup{
				Position: lg.Position, Title: lg.Title, Type: lg.Type,
			})
		}

		products = append(products, p)
	}

	return products, section.Header.TotalData, nil
}
