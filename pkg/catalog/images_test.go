package catalog

import "testing"

func TestImproveImageQualityUpgradesThumbnail(t *testing.T) {
	got := ImproveImageQuality("//images.igdb.com/igdb/image/upload/t_thumb/co1r7f.jpg", SizeCoverBig)
	want := "https://images.igdb.com/igdb/image/upload/t_cover_big/co1r7f.jpg"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestImproveImageQualityNormalizesProtocol(t *testing.T) {
	cases := map[string]string{
		"http://cdn.example.com/t_cover_big/x.jpg": "https://cdn.example.com/t_cover_big/x.jpg",
		"//cdn.example.com/t_cover_big/x.jpg":      "https://cdn.example.com/t_cover_big/x.jpg",
		"cdn.example.com/t_cover_big/x.jpg":        "https://cdn.example.com/t_cover_big/x.jpg",
	}
	for in, want := range cases {
		if got := ImproveImageQuality(in, SizeCoverBig); got != want {
			t.Fatalf("ImproveImageQuality(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestImproveImageQualityLeavesHighResAlone(t *testing.T) {
	in := "https://cdn.example.com/t_1080p/x.jpg"
	if got := ImproveImageQuality(in, SizeScreenshotBig); got != in {
		t.Fatalf("high-res URL rewritten to %q", got)
	}
}

func TestImproveImageQualityAppendsTokenWithoutMarker(t *testing.T) {
	got := ImproveImageQuality("https://cdn.example.com/covers/x.jpg", SizeCoverBig)
	want := "https://cdn.example.com/covers/x_t_cover_big.jpg"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestImproveImageQualityIsIdempotent(t *testing.T) {
	inputs := []string{
		"//images.igdb.com/igdb/image/upload/t_thumb/co1r7f.jpg",
		"http://cdn.example.com/shots/abc.png",
		"cdn.example.com/shots/abc",
		"https://cdn.example.com/t_screenshot_huge/abc.png",
	}
	for _, in := range inputs {
		once := ImproveImageQuality(in, SizeScreenshotBig)
		twice := ImproveImageQuality(once, SizeScreenshotBig)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestImproveImageQualityEmptyInput(t *testing.T) {
	if got := ImproveImageQuality("   ", SizeCoverBig); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}
