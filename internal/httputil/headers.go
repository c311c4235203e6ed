package httputil

import "net/http"

// BrowserHeaders returns common browser-like headers for page fetches.
func BrowserHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9,id;q=0.8")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	return h
}

// GraphQLHeaders returns the headers the desktop GraphQL gateway
// expects (ace_search_product versions).
func GraphQLHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("Accept-Language", "en-US,en;q=0.9,id;q=0.8")
	h.Set("Origin", "https://www.tokopedia.com")
	h.Set("Referer", "https://www.tokopedia.com/")
	h.Set("Sec-Fetch-Dest", "empty")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("Sec-Fetch-Site", "same-site")
	h.Set("X-Device", "desktop")
	h.Set("X-Source", "tokopedia-lite")
	h.Set("X-Tkpd-Lite-Service", "zeus")
	return h
}

// MobileAppHeaders returns the Android-app header set required by the
// searchProductV5 gateway, which rejects plain desktop requests.
func MobileAppHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("Accept-Language", "id-ID,id;q=0.9,en-US;q=0.8,en;q=0.7")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Connection", "keep-alive")
	h.Set("Origin", "https://www.tokopedia.com")
	h.Set("Referer", "https://www.tokopedia.com/")
	h.Set("Os_type", "2")
	h.Set("X-Requested-With", "com.tokopedia.tokopedia")
	h.Set("User-Agent", "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.210 Mobile Safari/537.36")
	return h
}
