package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const openGraphPage = `<!doctype html>
<html><head>
<title>Aurora Lamp | Shop</title>
<meta property="og:title" content="Aurora Desk Lamp">
<meta property="og:description" content="Warm light for late nights.">
<meta property="og:image" content="/img/lamp-hero.jpg">
<meta property="og:image" content="https://cdn.example.com/lamp-side.jpg">
<meta property="product:price:amount" content="49.00">
<meta property="product:price:currency" content="EUR">
<meta property="og:video" content="/media/lamp.mp4">
</head><body>
<article><h1>Aurora Desk Lamp</h1><p>Hand-finished aluminium body with a dimmable LED.</p>
<img src="/img/lamp-hero.jpg"><img src="/img/pixel.gif"><img src="/img/detail.png"></article>
</body></html>`

const jsonLDPage = `<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":"BreadcrumbList"},
  {"@type":["Product","Thing"],"name":"Trail Bottle","description":"Keeps water cold.",
   "image":["https://shop.example.com/bottle.jpg"],
   "offers":{"@type":"Offer","price":24.5,"priceCurrency":"USD"}}
]}
</script></head><body><p>Trail Bottle</p></body></html>`

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestParseOpenGraph(t *testing.T) {
	p, err := Parse([]byte(openGraphPage), mustURL(t, "https://shop.example.com/p/lamp"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "Aurora Desk Lamp" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Price != "€49.00" {
		t.Errorf("price = %q", p.Price)
	}
	if p.Image != "https://shop.example.com/img/lamp-hero.jpg" {
		t.Errorf("image = %q", p.Image)
	}
	want := []string{
		"https://shop.example.com/img/lamp-hero.jpg",
		"https://cdn.example.com/lamp-side.jpg",
		"https://shop.example.com/img/detail.png",
	}
	if !reflect.DeepEqual(p.Images, want) {
		t.Errorf("images = %v", p.Images)
	}
	if p.VideoURL != "https://shop.example.com/media/lamp.mp4" {
		t.Errorf("video = %q", p.VideoURL)
	}
	if p.URL != "https://shop.example.com/p/lamp" {
		t.Errorf("url = %q", p.URL)
	}
}

func TestParseJSONLD(t *testing.T) {
	p, err := Parse([]byte(jsonLDPage), mustURL(t, "https://shop.example.com/bottle"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "Trail Bottle" || p.Price != "$24.5" || p.Description != "Keeps water cold." {
		t.Errorf("product = %+v", p)
	}
	if p.Image != "https://shop.example.com/bottle.jpg" {
		t.Errorf("image = %q", p.Image)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct{ amount, currency, want string }{
		{"10", "USD", "$10"},
		{"10", "gbp", "£10"},
		{"10", "CHF", "10 CHF"},
		{"10", "", "$10"},
		{"€12", "EUR", "€12"},
	}
	for _, tt := range tests {
		if got := formatPrice(tt.amount, tt.currency); got != tt.want {
			t.Errorf("formatPrice(%q, %q) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestScrapeNeverFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/lamp":
			fmt.Fprint(w, openGraphPage)
		case "/empty":
			fmt.Fprint(w, "<html><body></body></html>")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := New(time.Second, "test-agent", zerolog.Nop())
	ctx := context.Background()

	if p := s.Scrape(ctx, srv.URL+"/lamp"); p.Title != "Aurora Desk Lamp" {
		t.Errorf("title = %q", p.Title)
	}

	for _, u := range []string{srv.URL + "/missing", srv.URL + "/empty", "ftp://example.com/x", "::not a url"} {
		p := s.Scrape(ctx, u)
		if !reflect.DeepEqual(p, Placeholder(u)) {
			t.Errorf("Scrape(%q) = %+v, want placeholder", u, p)
		}
	}
}

func TestPlaceholderIsDeterministic(t *testing.T) {
	if !reflect.DeepEqual(Placeholder("x"), Placeholder("x")) {
		t.Error("placeholder differs between calls")
	}
	if Placeholder("x").Title == "" || Placeholder("x").Image == "" {
		t.Error("placeholder has empty fields")
	}
}
