package tokopedia

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

const (
	gatewayURL  = "https://gql.tokopedia.com/"
	searchV5URL = "https://gql.tokopedia.com/graphql/SearchResult/getProductResult"
)

// searchProductV5Query targets the 2025 search gateway that replaced
// the ace_search_product family.
const searchProductV5Query = `query Search_SearchProduct($params: String!, $query: String!) {
	searchProductV5(params: $params) {
		header {
			totalData
			responseCode
			keywordProcess
			isQuerySafe
			additionalParams
		}
		data {
			totalDataText
			products {
				id
				name
				url
				mediaURL {
					image
					image300
					image700
				}
				shop {
					id
					name
					url
					city
				}
				badge {
					title
					url
				}
				price {
					text
					number
					original
					discountPercentage
				}
				labelGroups {
					position
					title
					type
					url
				}
				category {
					id
					name
					breadcrumb
				}
				rating
				stock {
					sold
				}
			}
		}
	}
}`

// buildV5Params reproduces the parameter string the mobile search page
// sends to searchProductV5.
func buildV5Params(keyword string, rows int) string {
	return "user_warehouseId=0&user_shopId=0&user_postCode=10110&srp_initial_state=false&breadcrumb=true&ep=product" +
		"&user_cityId=0&q=" + url.QueryEscape(keyword) + "&related=true&source=search&srp_enter_method=normal_search" +
		"&enter_method=normal_search&l_name=sre&user_districtId=0&srp_feature_id=&catalog_rows=0&page=1" +
		"&srp_component_id=02.01.00.00&ob=0&srp_sug_type=&src=search&with_template=true&show_adult=false" +
		"&srp_direct_middle_page=false&channel=product%20search&rf=false&navsource=home&use_page=true" +
		"&dep_id=&device=android&rows=" + strconv.Itoa(rows)
}

// aceSearchQuery builds a versioned ace_search_product query. shape
// selects one of the known schema variants the gateway has accepted
// over time; trying several shapes is the strategy's internal retry.
func aceSearchQuery(version string, shape int) string {
	switch shape {
	case 0: // full field set
		return fmt.Sprintf(`query SearchProductQuery%s($params: String!) {
	ace_search_product_%s(params: $params) {
		header { totalData totalDataText processTime responseCode errorMessage __typename }
		data {
			isQuerySafe
			products {
				id name price imageUrl rating countReview url
				badges { title imageUrl show __typename }
				labelGroups { position title type __typename }
				discountPercentage originalPrice
				shop { id name url city isOfficial isPowerBadge __typename }
				__typename
			}
			__typename
		}
		__typename
	}
}`, upper(version), version)
	case 1: // trimmed field set
		return fmt.Sprintf(`query AceSearchProduct%s($params: String!) {
	ace_search_product_%s(params: $params) {
		header { totalData responseCode errorMessage }
		data {
			products {
				id name price imageUrl rating countReview url
				discountPercentage originalPrice
				shop { id name city isOfficial isPowerBadge }
			}
		}
	}
}`, upper(version), version)
	default: // minimal
		return fmt.Sprintf(`query SearchProductQuery($params: String!) {
	ace_search_product_%s(params: $params) {
		header { totalData responseCode }
		data {
			products {
				id name price imageUrl rating countReview url
				shop { id name city isOfficial }
			}
		}
	}
}`, version)
	}
}

const aceQueryShapes = 3

// aceSearchParams enumerates the parameter encodings the gateway has
// accepted for ace_search_product; index selects one.
func aceSearchParams(keyword string, rows, index int) string {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("rows", strconv.Itoa(rows))
	switch index {
	case 0:
		params.Set("page", "1")
		params.Set("device", "desktop")
		params.Set("source", "search")
	case 1:
		params.Set("page", "1")
		params.Set("device", "mobile")
	default:
		params.Set("page", "1")
	}
	return params.Encode()
}

const aceParamShapes = 3

// gqlPayload marshals a single GraphQL operation body.
func gqlPayload(query string, variables map[string]any) (*bytes.Reader, error) {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql payload: %w", err)
	}
	return bytes.NewReader(body), nil
}

func upper(version string) string {
	if version == "" {
		return ""
	}
	b := []byte(version)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
