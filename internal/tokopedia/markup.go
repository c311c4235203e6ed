package tokopedia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/httputil"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/models"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/platform"
)

// MarkupStrategy fetches the search results page as plain HTML and
// extracts products from the server-rendered markup: product cards via
// CSS selectors first, JSON-LD structured data as a fallback. It only
// works when Tokopedia serves pre-rendered cards (no JS execution), so
// it sits late in the chain.
type MarkupStrategy struct {
	client *http.Client
}

func NewMarkupStrategy(client *http.Client) *MarkupStrategy {
	return &MarkupStrategy{client: client}
}

func (s *MarkupStrategy) Name() string { return "markup" }

// Selector lists in priority order. Tokopedia rotates its class names
// but keeps the data-testid attributes fairly stable.
var (
	cardSelectors = []string{
		`div[data-testid="divSRPContentProducts"] > div`,
		`div[data-testid="master-product-card"]`,
		`div.css-5wh65g`,
	}
	nameSelectors = []string{
		`span[data-testid="spnSRPProdName"]`,
		`div[data-testid="spnSRPProdName"]`,
		`span.css-20kt3o`,
	}
	priceSelectors = []string{
		`span[data-testid="spnSRPProdPrice"]`,
		`div[data-testid="spnSRPProdPrice"]`,
		`span.css-o5uqvq`,
	}
	shopSelectors = []string{
		`span[data-testid="spnSRPProdTabShopLoc"]`,
		`span.css-ywdpwd`,
	}
)

func (s *MarkupStrategy) Execute(ctx context.Context, req platform.Request) (*platform.Result, error) {
	switch req.Type {
	case platform.SearchRequest, platform.TrendingRequest, platform.ProductDetailRequest:
	default:
		return nil, fmt.Errorf("markup strategy does not support request type %d", req.Type)
	}

	pageURL := req.URL
	if pageURL == "" {
		page := req.Page
		if page <= 0 {
			page = 1
		}
		pageURL = fmt.Sprintf("https://www.tokopedia.com/search?q=%s&page=%d", url.QueryEscape(req.Keyword), page)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.BrowserHeaders() {
		httpReq.Header[k] = v
	}

	resp, err := httputil.DoWithRetry(s.client, httpReq, 2)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("markup response status %d", resp.StatusCode)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	products, err := parseSearchMarkup(body, limit)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		products, err = extractJSONLD(body)
		if err != nil {
			return nil, err
		}
		if len(products) > limit {
			products = products[:limit]
		}
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no product markup or JSON-LD data in page")
	}

	return &platform.Result{
		Products: products,
		Strategy: s.Name(),
	}, nil
}

// parseSearchMarkup walks the server-rendered product cards.
func parseSearchMarkup(body []byte, limit int) ([]models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse search markup: %w", err)
	}

	var cards *goquery.Selection
	for _, sel := range cardSelectors {
		found := doc.Find(sel)
		if found.Length() > 0 {
			cards = found
			break
		}
	}
	if cards == nil {
		return nil, nil
	}

	var products []models.Product
	cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
		name := firstText(card, nameSelectors)
		if name == "" {
			return true
		}
		priceText := firstText(card, priceSelectors)

		p := models.Product{
			Name:      name,
			Price:     priceText,
			PriceRaw:  parseRupiah(priceText),
			ScrapedAt: time.Now(),
			Strategy:  "markup",
		}

		if href, ok := card.Find("a").First().Attr("href"); ok {
			p.URL = normalizeProductURL(href)
		}
		if src, ok := card.Find("img").First().Attr("src"); ok {
			p.ImageURL = src
		}

		// Shop name and city share one testid; the first span is the
		// shop, the second the city.
		for _, sel := range shopSelectors {
			spans := card.Find(sel)
			if spans.Length() > 0 {
				p.Shop.Name = strings.TrimSpace(spans.Eq(0).Text())
				if spans.Length() > 1 {
					p.Shop.City = strings.TrimSpace(spans.Eq(1).Text())
				}
				break
			}
		}

		p.ID = models.SyntheticID(p.Name, p.Shop.Name, p.URL)
		products = append(products, p)
		return len(products) < limit
	})

	return products, nil
}

func firstText(sel *goquery.Selection, selectors []string) string {
	for _, s := range selectors {
		if found := sel.Find(s).First(); found.Length() > 0 {
			if text := strings.TrimSpace(found.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// parseRupiah extracts the integer amount from a display price such as
// "Rp1.250.000". Returns 0 when no digits are present.
func parseRupiah(text string) int64 {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func normalizeProductURL(href string) string {
	// Search result links route through ta.tokopedia.com with the real
	// product URL in the r parameter.
	if strings.Contains(href, "ta.tokopedia.com") {
		if u, err := url.Parse(href); err == nil {
			if r := u.Query().Get("r"); r != "" {
				return r
			}
		}
	}
	if strings.HasPrefix(href, "/") {
		return "https://www.tokopedia.com" + href
	}
	return href
}

// extractJSONLD pulls Product entries out of application/ld+json script
// tags. Pages without rendered cards often still carry structured data.
func extractJSONLD(body []byte) ([]models.Product, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var products []models.Product
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			for _, attr := range n.Attr {
				if attr.Key == "type" && attr.Val == "application/ld+json" && n.FirstChild != nil {
					if p, err := parseJSONLDProducts(n.FirstChild.Data); err == nil {
						products = append(products, p...)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return products, nil
}

type jsonLDItem struct {
	Type            string                 `json:"@type"`
	Name            string                 `json:"name"`
	URL             string                 `json:"url"`
	Image           any                    `json:"image"`
	Offers          *jsonLDOffer           `json:"offers"`
	AggregateRating *jsonLDAggregateRating `json:"aggregateRating"`
	ItemListElement []jsonLDListElement    `json:"itemListElement"`
}

type jsonLDOffer struct {
	Price         json.Number   `json:"price"`
	PriceCurrency string        `json:"priceCurrency"`
	Seller        *jsonLDSeller `json:"seller"`
}

type jsonLDSeller struct {
	Name string `json:"name"`
}

type jsonLDAggregateRating struct {
	RatingValue json.Number `json:"ratingValue"`
	ReviewCount json.Number `json:"reviewCount"`
}

type jsonLDListElement struct {
	Item *jsonLDItem `json:"item"`
}

func parseJSONLDProducts(data string) ([]models.Product, error) {
	data = strings.TrimSpace(data)

	var item jsonLDItem
	if err := json.Unmarshal([]byte(data), &item); err == nil {
		if p, ok := jsonLDToProduct(&item); ok {
			return []models.Product{p}, nil
		}
		if item.Type == "ItemList" && len(item.ItemListElement) > 0 {
			var products []models.Product
			for _, elem := range item.ItemListElement {
				if elem.Item == nil {
					continue
				}
				if p, ok := jsonLDToProduct(elem.Item); ok {
					products = append(products, p)
				}
			}
			return products, nil
		}
	}

	var items []jsonLDItem
	if err := json.Unmarshal([]byte(data), &items); err == nil {
		var products []models.Product
		for i := range items {
			if p, ok := jsonLDToProduct(&items[i]); ok {
				products = append(products, p)
			}
		}
		return products, nil
	}

	return nil, fmt.Errorf("no product data in JSON-LD")
}

func jsonLDToProduct(item *jsonLDItem) (models.Product, bool) {
	if item.Type != "Product" {
		return models.Product{}, false
	}

	p := models.Product{
		Name:      item.Name,
		URL:       item.URL,
		ScrapedAt: time.Now(),
		Strategy:  "markup",
	}

	if item.Offers != nil {
		if price, err := item.Offers.Price.Int64(); err == nil {
			p.PriceRaw = price
			p.Price = formatRupiah(price)
		}
		if item.Offers.Seller != nil {
			p.Shop.Name = item.Offers.Seller.Name
		}
	}

	if item.AggregateRating != nil {
		if r, err := item.AggregateRating.RatingValue.Float64(); err == nil {
			p.Rating = r
		}
		if rc, err := item.AggregateRating.ReviewCount.Int64(); err == nil {
			p.ReviewCount = int(rc)
		}
	}

	switch img := item.Image.(type) {
	case string:
		p.ImageURL = img
	case []any:
		if len(img) > 0 {
			if s, ok := img[0].(string); ok {
				p.ImageURL = s
			}
		}
	}

	p.ID = models.SyntheticID(p.Name, p.Shop.Name, p.URL)
	return p, true
}

// formatRupiah renders an amount the way Tokopedia displays prices,
// with dots as thousand separators.
func formatRupiah(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	var b strings.Builder
	b.WriteString("Rp")
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return b.String()
}
