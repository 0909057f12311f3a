package idealista

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"idealista-watcher/models"
)

// ErrNoLink is reported for cards that have no usable listing link.
var ErrNoLink = errors.New("listing card has no link")

// Extractor turns a search results page into listing candidates.
type Extractor struct {
	base *url.URL
}

// NewExtractor creates an Extractor that resolves relative links against the
// Idealista origin.
func NewExtractor() *Extractor {
	base, _ := url.Parse(baseURL)
	return &Extractor{base: base}
}

// Extract returns one result per listing card, in page order. An error is
// returned only when the document itself cannot be parsed.
func (e *Extractor) Extract(body []byte) ([]models.ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("idealista: parse html: %w", err)
	}

	cards := doc.Find("article.item")
	if cards.Length() == 0 {
		cards = doc.Find("article.listing-item")
	}

	results := make([]models.ExtractResult, 0, cards.Length())
	cards.Each(func(i int, card *goquery.Selection) {
		l, err := e.extractCard(card)
		if err != nil {
			results = append(results, models.ExtractResult{Err: fmt.Errorf("card %d: %w", i, err)})
			return
		}
		results = append(results, models.ExtractResult{Listing: l})
	})
	return results, nil
}

func (e *Extractor) extractCard(card *goquery.Selection) (*models.Listing, error) {
	anchor := card.Find("a.item-link").First()
	href, ok := anchor.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return nil, ErrNoLink
	}
	link, err := e.absolute(href)
	if err != nil {
		return nil, err
	}

	l := &models.Listing{
		Title:       normaliseText(anchor.Text()),
		Link:        link,
		Description: models.NoDescription,
		Price:       models.NoPrice,
		Rooms:       models.NotAvailable,
		Size:        models.NotAvailable,
		Floor:       models.NotAvailable,
	}

	if desc := normaliseText(card.Find("div.description").First().Text()); desc != "" {
		l.Description = desc
	}
	if price := card.Find("span.item-price").First(); price.Length() > 0 {
		l.Price = cleanPrice(price.Text())
	}

	details := card.Find("span.item-detail")
	fields := []*string{&l.Rooms, &l.Size, &l.Floor}
	for i, field := range fields {
		if i >= details.Length() {
			break
		}
		if v := normaliseText(details.Eq(i).Text()); v != "" {
			*field = v
		}
	}

	return l, nil
}

func (e *Extractor) absolute(href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("bad link %q: %w", href, err)
	}
	abs := e.base.ResolveReference(ref)
	if abs.Scheme == "" || abs.Host == "" {
		return "", fmt.Errorf("bad link %q: %w", href, ErrNoLink)
	}
	return abs.String(), nil
}

// cleanPrice keeps the amount before the currency sign: "1.250€/mes" → "1.250 €".
func cleanPrice(raw string) string {
	amount := strings.TrimSpace(strings.SplitN(normaliseText(raw), "€", 2)[0])
	if amount == "" {
		return models.NoPrice
	}
	return amount + " €"
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}
