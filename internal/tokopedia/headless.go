package tokopedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/models"
	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/platform"
)

// HeadlessBrowserStrategy renders the search page with rod so
// JS-hydrated product cards become visible. It is the slowest and most
// resource-hungry strategy, so it runs last and only when enabled.
type HeadlessBrowserStrategy struct {
	launcherURL string // optional remote launcher URL
}

func NewHeadlessBrowserStrategy(launcherURL string) *HeadlessBrowserStrategy {
	return &HeadlessBrowserStrategy{launcherURL: launcherURL}
}

func (h *HeadlessBrowserStrategy) Name() string { return "headless" }

func (h *HeadlessBrowserStrategy) Execute(ctx context.Context, req platform.Request) (*platform.Result, error) {
	pageURL := req.URL
	switch req.Type {
	case platform.SearchRequest, platform.TrendingRequest:
		page := req.Page
		if page <= 0 {
			page = 1
		}
		pageURL = fmt.Sprintf("https://www.tokopedia.com/search?q=%s&page=%d", url.QueryEscape(req.Keyword), page)
	case platform.ProductDetailRequest:
		if pageURL == "" {
			return nil, fmt.Errorf("headless product detail requires a URL")
		}
	default:
		return nil, fmt.Errorf("headless strategy does not support request type %d", req.Type)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	page, cleanup, err := h.openPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	timedPage := page.Timeout(15 * time.Second)
	if err := timedPage.WaitStable(time.Second); err == nil {
		_ = timedPage.WaitDOMStable(2*time.Second, 0.1)
	}

	htmlContent, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("get page HTML: %w", err)
	}

	// The rendered page carries the same markup the plain fetch would
	// have, were it not behind JS hydration.
	products, err := parseSearchMarkup([]byte(htmlContent), limit)
	if err == nil && len(products) == 0 {
		products, _ = extractJSONLD([]byte(htmlContent))
		if len(products) > limit {
			products = products[:limit]
		}
	}
	if len(products) == 0 {
		products, err = h.extractFromScripts(page, limit)
		if err != nil {
			return nil, fmt.Errorf("headless extraction failed: %w", err)
		}
	}

	for i := range products {
		products[i].Strategy = h.Name()
	}

	return &platform.Result{
		Products: products,
		Strategy: h.Name(),
	}, nil
}

func (h *HeadlessBrowserStrategy) openPage(ctx context.Context, pageURL string) (*rod.Page, func(), error) {
	var l *launcher.Launcher
	if h.launcherURL != "" {
		l = launcher.MustNewManaged(h.launcherURL)
	} else {
		l = launcher.New().Headless(true).Logger(io.Discard)
	}
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		browser.Close()
		return nil, nil, fmt.Errorf("open page: %w", err)
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
	})
	if err != nil {
		browser.Close()
		return nil, nil, fmt.Errorf("set viewport: %w", err)
	}

	cleanup := func() {
		page.Close()
		browser.Close()
		l.Cleanup()
	}

	return page, cleanup, nil
}

// extractFromScripts digs product records out of the hydration state
// embedded in inline script tags.
func (h *HeadlessBrowserStrategy) extractFromScripts(page *rod.Page, limit int) ([]models.Product, error) {
	result, err := page.Eval(`() => {
		const scripts = document.querySelectorAll('script');
		for (const script of scripts) {
			const text = script.textContent;
			if (text.includes('"products"') && text.includes('"shop"')) {
				return text;
			}
		}
		return '';
	}`)
	if err != nil || result.Value.Str() == "" {
		return nil, fmt.Errorf("no embedded product data found")
	}

	content := result.Value.Str()
	start := strings.Index(content, `"products":[`)
	if start == -1 {
		return nil, fmt.Errorf("no products array found")
	}
	start = strings.Index(content[start:], "[") + start
	depth := 0
	end := start
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				end = i + 1
			}
		}
		if end > start {
			break
		}
	}
	if end <= start {
		return nil, fmt.Errorf("malformed products array")
	}

	var rawProducts []json.RawMessage
	if err := json.Unmarshal([]byte(content[start:end]), &rawProducts); err != nil {
		return nil, fmt.Errorf("parse products array: %w", err)
	}

	var products []models.Product
	for _, raw := range rawProducts {
		var wp aceProduct
		if err := json.Unmarshal(raw, &wp); err != nil {
			continue
		}
		if wp.Name == "" {
			continue
		}
		p := models.Product{
			ID:          wp.ID.String(),
			Name:        wp.Name,
			Price:       wp.Price,
			PriceRaw:    parseRupiah(wp.Price),
			ImageURL:    wp.ImageURL,
			URL:         wp.URL,
			Rating:      wp.Rating.Float64(),
			ReviewCount: wp.CountReview.Int(),
			ScrapedAt:   time.Now(),
			Strategy:    h.Name(),
			Shop: models.Shop{
				ID:   wp.Shop.ID.Int64(),
				Name: wp.Shop.Name,
				City: wp.Shop.City,
			},
		}
		if p.ID == "" {
			p.ID = models.SyntheticID(p.Name, p.Shop.Name, p.URL)
		}
		products = append(products, p)
		if len(products) == limit {
			break
		}
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no valid products parsed from page state")
	}

	return products, nil
}
