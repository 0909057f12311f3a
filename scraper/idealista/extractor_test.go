package idealista

import (
	"errors"
	"testing"

	"idealista-watcher/models"
)

const searchPage = `<html><body><main>
<article class="item">
  <div class="item-info-container">
    <a class="item-link" href="/inmueble/101/">  Ático en calle de Verdi,
      Vila de Gràcia </a>
    <div class="price-row"><span class="item-price h2-simulated">1.350<span class="txt-big">€/mes</span></span></div>
    <span class="item-detail">2 hab.</span>
    <span class="item-detail">65 m²</span>
    <span class="item-detail">Planta 5ª exterior con ascensor</span>
    <div class="description"><p>Piso   luminoso con terraza</p></div>
  </div>
</article>
<article class="item">
  <div class="item-info-container">
    <a class="item-link" href="https://www.idealista.com/inmueble/102/">Piso en Sants</a>
    <span class="item-detail">1 hab.</span>
  </div>
</article>
<article class="item adv">
  <div class="item-info-container"><span>Publicidad</span></div>
</article>
</main></body></html>`

func TestExtractCards(t *testing.T) {
	results, err := NewExtractor().Extract([]byte(searchPage))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results: got %d, want 3", len(results))
	}

	first := results[0].Listing
	if first == nil {
		t.Fatalf("first card failed: %v", results[0].Err)
	}
	want := models.Listing{
		Title:       "Ático en calle de Verdi, Vila de Gràcia",
		Link:        "https://www.idealista.com/inmueble/101/",
		Description: "Piso luminoso con terraza",
		Price:       "1.350 €",
		Rooms:       "2 hab.",
		Size:        "65 m²",
		Floor:       "Planta 5ª exterior con ascensor",
	}
	if *first != want {
		t.Errorf("first card:\n got %+v\nwant %+v", *first, want)
	}
}

func TestExtractPlaceholders(t *testing.T) {
	results, err := NewExtractor().Extract([]byte(searchPage))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	second := results[1].Listing
	if second == nil {
		t.Fatalf("second card failed: %v", results[1].Err)
	}
	if second.Link != "https://www.idealista.com/inmueble/102/" {
		t.Errorf("Link: got %q", second.Link)
	}
	if second.Description != models.NoDescription {
		t.Errorf("Description: got %q", second.Description)
	}
	if second.Price != models.NoPrice {
		t.Errorf("Price: got %q", second.Price)
	}
	if second.Rooms != "1 hab." {
		t.Errorf("Rooms: got %q", second.Rooms)
	}
	if second.Size != models.NotAvailable || second.Floor != models.NotAvailable {
		t.Errorf("Size/Floor: got %q / %q", second.Size, second.Floor)
	}
}

func TestExtractCardWithoutLinkIsIsolated(t *testing.T) {
	results, err := NewExtractor().Extract([]byte(searchPage))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	third := results[2]
	if third.Listing != nil {
		t.Fatalf("ad card should not produce a listing: %+v", third.Listing)
	}
	if !errors.Is(third.Err, ErrNoLink) {
		t.Errorf("expected ErrNoLink, got %v", third.Err)
	}
}

func TestExtractFallbackSelector(t *testing.T) {
	page := `<article class="listing-item"><a class="item-link" href="/inmueble/7/">Piso</a></article>`
	results, err := NewExtractor().Extract([]byte(page))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(results) != 1 || results[0].Listing == nil {
		t.Fatalf("expected one listing from fallback selector, got %+v", results)
	}
}

func TestExtractEmptyPage(t *testing.T) {
	results, err := NewExtractor().Extract([]byte("<html><body>No results</body></html>"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results: got %d, want 0", len(results))
	}
}

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1.350€/mes", "1.350 €"},
		{" 950 € /mes ", "950 €"},
		{"1.200", "1.200 €"},
		{"", models.NoPrice},
		{"€/mes", models.NoPrice},
	}

	for _, tt := range tests {
		if got := cleanPrice(tt.raw); got != tt.want {
			t.Errorf("cleanPrice(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormaliseText(t *testing.T) {
	if got := normaliseText("  a \n\t b  c "); got != "a b c" {
		t.Errorf("normaliseText: got %q", got)
	}
}
