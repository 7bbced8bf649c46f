// Package scraper pulls end-card data out of a product page. Scrape never
// fails: anything it cannot read comes back as a placeholder product.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"

	"github.com/ivlev/promoreel/internal/manifest"
)

const (
	maxBody   = 4 << 20
	maxImages = 8

	placeholderTitle = "Featured Product"
	placeholderPrice = "$29.99"
	placeholderImage = "placeholder://product"
)

var priceText = regexp.MustCompile(`[$€£¥]\s?\d{1,6}(?:[.,]\d{2})?`)

// Scraper fetches pages over HTTP.
type Scraper struct {
	HTTP      *http.Client
	UserAgent string
	Log       zerolog.Logger
}

func New(timeout time.Duration, userAgent string, log zerolog.Logger) *Scraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Scraper{
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		Log:       log,
	}
}

// Placeholder is the deterministic product used when a page can't be read.
func Placeholder(pageURL string) manifest.Product {
	return manifest.Product{
		Title:       placeholderTitle,
		Price:       placeholderPrice,
		Image:       placeholderImage,
		Description: "A product worth a closer look.",
		URL:         pageURL,
	}
}

// Scrape returns whatever product data the page yields, filling gaps from
// the placeholder.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) manifest.Product {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		s.Log.Warn().Str("url", pageURL).Msg("not an http url, using placeholder product")
		return Placeholder(pageURL)
	}

	body, err := s.fetch(ctx, u.String())
	if err != nil {
		s.Log.Warn().Err(err).Str("url", pageURL).Msg("fetch failed, using placeholder product")
		return Placeholder(pageURL)
	}

	p, err := Parse(body, u)
	if err != nil {
		s.Log.Warn().Err(err).Str("url", pageURL).Msg("parse failed, using placeholder product")
		return Placeholder(pageURL)
	}
	s.Log.Info().Str("title", p.Title).Str("price", p.Price).Int("images", len(p.Images)).Msg("product scraped")
	return p
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

// Parse extracts a product from page HTML. Structured data (Open Graph,
// schema.org JSON-LD) wins over readability's guesses. Missing fields are
// taken from the placeholder.
func Parse(body []byte, pageURL *url.URL) (manifest.Product, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return manifest.Product{}, fmt.Errorf("parse html: %w", err)
	}

	p := manifest.Product{URL: pageURL.String()}
	ld := findJSONLDProduct(doc)

	p.Title = firstNonEmpty(ld.Name, meta(doc, "og:title"), meta(doc, "twitter:title"))
	p.Description = firstNonEmpty(ld.Description, meta(doc, "og:description"), meta(doc, "description"))
	p.Price = firstNonEmpty(ld.price(), metaPrice(doc), itempropPrice(doc))
	p.VideoURL = resolve(pageURL, firstNonEmpty(meta(doc, "og:video:secure_url"), meta(doc, "og:video"), doc.Find("video source[src]").First().AttrOr("src", "")))

	images := append([]string{}, ld.Images...)
	doc.Find(`meta[property="og:image"]`).Each(func(_ int, sel *goquery.Selection) {
		images = append(images, sel.AttrOr("content", ""))
	})

	art, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil {
		p.Title = firstNonEmpty(p.Title, art.Title)
		p.Description = firstNonEmpty(p.Description, art.Excerpt)
		images = append(images, art.Image)
		if p.Price == "" {
			p.Price = priceText.FindString(art.TextContent)
		}
	}
	if p.Price == "" {
		p.Price = priceText.FindString(doc.Find("body").Text())
	}

	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		images = append(images, sel.AttrOr("src", ""))
	})
	p.Images = cleanImages(pageURL, images)

	if p.Title == "" && len(p.Images) == 0 {
		return manifest.Product{}, fmt.Errorf("no product data on page")
	}

	ph := Placeholder(p.URL)
	p.Title = firstNonEmpty(strings.TrimSpace(p.Title), ph.Title)
	p.Price = firstNonEmpty(strings.TrimSpace(p.Price), ph.Price)
	p.Description = strings.TrimSpace(p.Description)
	if len(p.Images) > 0 {
		p.Image = p.Images[0]
	} else {
		p.Image = ph.Image
	}
	return p, nil
}

func meta(doc *goquery.Document, name string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, name, name)).First()
	return strings.TrimSpace(sel.AttrOr("content", ""))
}

func metaPrice(doc *goquery.Document) string {
	amount := firstNonEmpty(meta(doc, "product:price:amount"), meta(doc, "og:price:amount"))
	if amount == "" {
		return ""
	}
	return formatPrice(amount, firstNonEmpty(meta(doc, "product:price:currency"), meta(doc, "og:price:currency")))
}

func itempropPrice(doc *goquery.Document) string {
	sel := doc.Find(`[itemprop="price"]`).First()
	amount := strings.TrimSpace(firstNonEmpty(sel.AttrOr("content", ""), sel.Text()))
	if amount == "" {
		return ""
	}
	currency := doc.Find(`[itemprop="priceCurrency"]`).First().AttrOr("content", "")
	return formatPrice(amount, currency)
}

var currencySymbols = map[string]string{"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥"}

func formatPrice(amount, currency string) string {
	if strings.ContainsAny(amount, "$€£¥") {
		return amount
	}
	if sym, ok := currencySymbols[strings.ToUpper(currency)]; ok {
		return sym + amount
	}
	if currency != "" {
		return amount + " " + strings.ToUpper(currency)
	}
	return "$" + amount
}

// ldProduct is the part of a schema.org Product we read.
type ldProduct struct {
	Name        string
	Description string
	Images      []string
	Price       string
	Currency    string
}

func (l ldProduct) price() string {
	if l.Price == "" {
		return ""
	}
	return formatPrice(l.Price, l.Currency)
}

func findJSONLDProduct(doc *goquery.Document) ldProduct {
	var found ldProduct
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var v any
		if err := json.Unmarshal([]byte(sel.Text()), &v); err != nil {
			return true
		}
		if obj, ok := findTyped(v, "Product"); ok {
			found = toLDProduct(obj)
			return false
		}
		return true
	})
	return found
}

// findTyped walks arrays and @graph containers looking for an object whose
// @type is (or includes) typ.
func findTyped(v any, typ string) (map[string]any, bool) {
	switch x := v.(type) {
	case []any:
		for _, e := range x {
			if obj, ok := findTyped(e, typ); ok {
				return obj, true
			}
		}
	case map[string]any:
		switch t := x["@type"].(type) {
		case string:
			if t == typ {
				return x, true
			}
		case []any:
			for _, e := range t {
				if e == typ {
					return x, true
				}
			}
		}
		if g, ok := x["@graph"]; ok {
			return findTyped(g, typ)
		}
	}
	return nil, false
}

func toLDProduct(obj map[string]any) ldProduct {
	p := ldProduct{
		Name:        str(obj["name"]),
		Description: str(obj["description"]),
	}
	switch img := obj["image"].(type) {
	case string:
		p.Images = []string{img}
	case []any:
		for _, i := range img {
			if s := str(i); s != "" {
				p.Images = append(p.Images, s)
			}
		}
	case map[string]any:
		p.Images = []string{str(img["url"])}
	}

	offers := obj["offers"]
	if list, ok := offers.([]any); ok && len(list) > 0 {
		offers = list[0]
	}
	if o, ok := offers.(map[string]any); ok {
		p.Price = firstNonEmpty(str(o["price"]), str(o["lowPrice"]))
		p.Currency = str(o["priceCurrency"])
	}
	return p
}

func str(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", x), "0"), ".")
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ""
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ""
	}
	return u.String()
}

// cleanImages resolves, de-duplicates and caps image URLs, dropping
// tracking pixels and icons.
func cleanImages(base *url.URL, raw []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range raw {
		abs := resolve(base, r)
		if abs == "" || seen[abs] {
			continue
		}
		lower := strings.ToLower(abs)
		if strings.Contains(lower, "pixel") || strings.Contains(lower, "favicon") || strings.HasSuffix(lower, ".svg") || strings.HasSuffix(lower, ".gif") {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
		if len(out) == maxImages {
			break
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
