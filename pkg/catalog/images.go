package catalog

import (
	"path"
	"strings"
)

// Image size tokens understood by the upstream image CDN.
const (
	SizeCoverBig       = "t_cover_big"
	SizeScreenshotBig  = "t_screenshot_big"
	SizeScreenshotHuge = "t_screenshot_huge"
	Size720p           = "t_720p"
	Size1080p          = "t_1080p"
)

// highQualityMarkers is the known set of markers that already denote a
// high-resolution variant. A URL containing any of them is left untouched.
var highQualityMarkers = []string{
	SizeCoverBig,
	SizeScreenshotBig,
	SizeScreenshotHuge,
	Size720p,
	Size1080p,
}

// lowQualityMarker is the thumbnail variant emitted by default upstream.
const lowQualityMarker = "t_thumb"

// ImproveImageQuality normalizes an upstream image URL to absolute https and
// upgrades its size marker to sizeToken. The transform is pure and
// idempotent: applying it twice with the same token yields the same URL.
func ImproveImageQuality(rawURL, sizeToken string) string {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return ""
	}
	u = normalizeProtocol(u)

	for _, marker := range highQualityMarkers {
		if strings.Contains(u, marker) {
			return u
		}
	}
	if sizeToken != "" && strings.Contains(u, sizeToken) {
		return u
	}

	if strings.Contains(u, lowQualityMarker) {
		return strings.Replace(u, lowQualityMarker, sizeToken, 1)
	}

	// No known marker present: append the token before the file extension.
	ext := path.Ext(u)
	if ext == "" {
		return u + "_" + sizeToken
	}
	return strings.TrimSuffix(u, ext) + "_" + sizeToken + ext
}

// normalizeProtocol rewrites protocol-relative or bare URLs to absolute https.
func normalizeProtocol(u string) string {
	switch {
	case strings.HasPrefix(u, "https://"):
		return u
	case strings.HasPrefix(u, "http://"):
		return "https://" + strings.TrimPrefix(u, "http://")
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	default:
		return "https://" + u
	}
}
