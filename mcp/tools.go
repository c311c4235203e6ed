package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Ev3lynx727/containerd-apps-tokped-scrapper/internal/platform"
)

func registerTools(s *server.MCPServer, deps Deps) {
	// search_products
	searchTool := mcp.NewTool("search_products",
		mcp.WithDescription("Search and enrich Tokopedia products for a query; results include bestseller/trending flags and shop scores"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
		mcp.WithNumber("num_products",
			mcp.Description("Number of products to collect (default: 10, max: 100)"),
		),
	)
	s.AddTool(searchTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := request.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		count := request.GetInt("num_products", 10)

		result, err := deps.Search.Search(ctx, query, count)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
		}
		return jsonResult(result)
	})

	// get_trending
	trendingTool := mcp.NewTool("get_trending",
		mcp.WithDescription("Get the trending products from the most recent search"),
	)
	s.AddTool(trendingTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		products, err := deps.Search.Trending(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("trending error: %v", err)), nil
		}
		return jsonResult(products)
	})

	// get_product
	productTool := mcp.NewTool("get_product",
		mcp.WithDescription("Get one cached product by id"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Product id"),
		),
	)
	s.AddTool(productTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("id", "")
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		product, err := deps.Search.Product(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("product error: %v", err)), nil
		}
		return jsonResult(product)
	})

	// product_detail
	detailTool := mcp.NewTool("product_detail",
		mcp.WithDescription("Fetch full product details live by URL"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Product page URL"),
		),
	)
	s.AddTool(detailTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url := request.GetString("url", "")
		if url == "" {
			return mcp.NewToolResultError("url is required"), nil
		}
		scraper, err := platform.Get("tokopedia")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("platform error: %v", err)), nil
		}
		product, err := scraper.ProductDetail(ctx, url)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("detail error: %v", err)), nil
		}
		return jsonResult(product)
	})

	// popular_queries
	popularTool := mcp.NewTool("popular_queries",
		mcp.WithDescription("Rank recent search queries by frequency"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum queries to return (default: 10)"),
		),
	)
	s.AddTool(popularTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := request.GetInt("limit", 10)
		return jsonResult(deps.Analytics.PopularQueries(ctx, limit))
	})

	// top_shops
	topShopsTool := mcp.NewTool("top_shops",
		mcp.WithDescription("Rank shops across recent searches by recommendation score"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum shops to return (default: 10)"),
		),
	)
	s.AddTool(topShopsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := request.GetInt("limit", 10)
		return jsonResult(deps.Analytics.TopShops(ctx, limit))
	})

	// extract_categories
	categoriesTool := mcp.NewTool("extract_categories",
		mcp.WithDescription("Extract category labels from recently cached products"),
		mcp.WithString("type",
			mcp.Description(`Filter by category type: "product" or "location"`),
		),
		mcp.WithString("query",
			mcp.Description("Fuzzy product-name filter"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum categories to return"),
		),
	)
	s.AddTool(categoriesTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		typeFilter := request.GetString("type", "")
		queryFilter := request.GetString("query", "")
		limit := request.GetInt("limit", 0)
		return jsonResult(deps.Analytics.ExtractCategories(ctx, typeFilter, queryFilter, limit))
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
