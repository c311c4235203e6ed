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

// VersionedGraphQLStrategy queries one ace_search_product version
// (v4 or v3) on the desktop gateway. The gateway has drifted its
// accepted query and parameter shapes over time, so the strategy walks
// every known combination before giving up. Those retries are internal:
// the chain only ever sees success or a single failure.
type VersionedGraphQLStrategy struct {
	client  *http.Client
	version string
}

func NewVersionedGraphQLStrategy(client *http.Client, version string) *VersionedGraphQLStrategy {
	return &VersionedGraphQLStrategy{client: client, version: version}
}

func (s *VersionedGraphQLStrategy) Name() string { return "graphql-" + s.version }

func (s *VersionedGraphQLStrategy) Execute(ctx context.Context, req platform.Request) (*platform.Result, error) {
	switch req.Type {
	case platform.SearchRequest, platform.TrendingRequest:
	default:
		return nil, fmt.Errorf("%s strategy does not support request type %d", s.Name(), req.Type)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	var lastErr error
	for shape := 0; shape < aceQueryShapes; shape++ {
		for param := 0; param < aceParamShapes; param++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			products, total, err := s.attempt(ctx, req.Keyword, limit, shape, param)
			if err != nil {
				lastErr = err
				continue
			}
			if len(products) == 0 {
				lastErr = fmt.Errorf("%s shape %d/%d returned no products", s.Name(), shape, param)
				continue
			}
			return &platform.Result{
				Products:  products,
				TotalData: total,
				Strategy:  s.Name(),
			}, nil
		}
	}
	return nil, fmt.Errorf("%s exhausted all query shapes: %w", s.Name(), lastErr)
}

func (s *VersionedGraphQLStrategy) attempt(ctx context.Context, keyword string, limit, shape, param int) ([]models.Product, int, error) {
	body, err := gqlPayload(aceSearchQuery(s.version, shape), map[string]any{
		"params": aceSearchParams(keyword, limit, param),
	})
	if err != nil {
		return nil, 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", gatewayURL, body)
	if err != nil {
		return nil, 0, err
	}
	for k, v := range httputil.GraphQLHeaders() {
		httpReq.Header[k] = v
	}

	resp, err := httputil.DoWithRetry(s.client, httpReq, 1)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("%s response status %d", s.Name(), resp.StatusCode)
	}

	return parseAceResponse(respBody, s.version, s.Name(), limit)
}

type aceProduct struct {
	ID          flexString `json:"id"`
	Name        string     `json:"name"`
	Price       string     `json:"price"`
	ImageURL    string     `json:"imageUrl"`
	Rating      flexFloat  `json:"rating"`
	CountReview flexFloat  `json:"countReview"`
	URL         string     `json:"url"`
	Badges      []struct {
		Title string `json:"title"`
		URL   string `json:"imageUrl"`
	} `json:"badges"`
	LabelGroups []struct {
		Position string `json:"position"`
		Title    string `json:"title"`
		Type     string `json:"type"`
	} `json:"labelGroups"`
	DiscountPercentage flexFloat `json:"discountPercentage"`
	OriginalPrice      string    `json:"originalPrice"`
	Shop               struct {
		ID           flexString `json:"id"`
		Name         string     `json:"name"`
		URL          string     `json:"url"`
		City         string     `json:"city"`
		IsOfficial   bool       `json:"isOfficial"`
		IsPowerBadge bool       `json:"isPowerBadge"`
	} `json:"shop"`
}

func parseAceResponse(data []byte, version, strategy string, limit int) ([]models.Product, int, error) {
	var resp struct {
		Data   map[string]json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, 0, fmt.Errorf("unmarshal ace response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, 0, fmt.Errorf("gateway error: %s", resp.Errors[0].Message)
	}

	raw, ok := resp.Data["ace_search_product_"+version]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, 0, fmt.Errorf("response missing ace_search_product_%s section", version)
	}

	var section struct {
		Header struct {
			TotalData    int    `json:"totalData"`
			ResponseCode string `json:"responseCode"`
			ErrorMessage string `json:"errorMessage"`
		} `json:"header"`
		Data struct {
			Products []aceProduct `json:"products"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &section); err != nil {
		return nil, 0, fmt.Errorf("unmarshal ace section: %w", err)
	}
	if section.Header.ErrorMessage != "" {
		return nil, 0, fmt.Errorf("gateway error: %s", section.Header.ErrorMessage)
	}

	wire := section.Data.Products
	if len(wire) > limit {
		wire = wire[:limit]
	}

	products := make([]models.Product, 0, len(wire))
	for _, wp := range wire {
		p := models.Product{
			ID:                 wp.ID.String(),
			Name:               wp.Name,
			Price:              wp.Price,
			OriginalPrice:      wp.OriginalPrice,
			DiscountPercentage: wp.DiscountPercentage.Int(),
			ImageURL:           wp.ImageURL,
			URL:                wp.URL,
			Rating:             wp.Rating.Float64(),
			ReviewCount:        wp.CountReview.Int(),
			ScrapedAt:          time.Now(),
			Strategy:           strategy,
			Shop: models.Shop{
				ID:         wp.Shop.ID.Int64(),
				Name:       wp.Shop.Name,
				URL:        wp.Shop.URL,
				City:       wp.Shop.City,
				IsOfficial: wp.Shop.IsOfficial,
				IsPower:    wp.Shop.IsPowerBadge,
			},
		}
		if p.ID == "" {
			p.ID = models.SyntheticID(p.Name, p.Shop.Name, p.URL)
		}
		for _, b := range wp.Badges {
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
