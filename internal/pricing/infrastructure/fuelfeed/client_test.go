package fuelfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/text/encoding/charmap"
)

func TestParseFeedLine(t *testing.T) {
	cases := []struct {
		line  string
		want  float64
		found bool
	}{
		{"BENZINA;1,816;EUR/L", 1.816, true},
		{"Benzina super;1.75", 1.75, true},
		{"GASOLIO;1,70", 0, false},
		{"BENZINA", 0, false},
		{"BENZINA;;", 0, false},
		{"BENZINA;-1,2", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		price, found := parseFeedLine(tc.line)
		if found != tc.found || price != tc.want {
			t.Fatalf("parseFeedLine(%q) = %v,%v; want %v,%v", tc.line, price, found, tc.want, tc.found)
		}
	}
}

func TestFetchLiveFeed(t *testing.T) {
	// The real feed is Latin-1: encode a label with an accented character to
	// make sure the decoder is actually applied.
	raw, err := charmap.ISO8859_1.NewEncoder().String("DATA;PREZZO\nGasolio autotrazione;1,680\nBenzina però;1,816\n")
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=ISO-8859-1")
		_, _ = w.Write([]byte(raw))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, 1.85, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	price, live := client.Fetch(context.Background())
	if !live {
		t.Fatal("expected a live price")
	}
	if price != 1.816 {
		t.Fatalf("price = %v, want 1.816", price)
	}
}

func TestFetchCachesLiveValue(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("BENZINA;1,80\n"))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, 1.85, nil, WithCacheTTL(time.Hour))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	for i := 0; i < 3; i++ {
		if price, live := client.Fetch(context.Background()); !live || price != 1.80 {
			t.Fatalf("fetch %d = %v,%v", i, price, live)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("feed hits = %d, want 1 (cached)", got)
	}
}

func TestFetchFallsBackOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, 1.85, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	price, live := client.Fetch(context.Background())
	if live {
		t.Fatal("feed failed, price must not be live")
	}
	if price != 1.85 {
		t.Fatalf("price = %v, want backup 1.85", price)
	}
}

func TestFetchFallsBackWithoutFeedURL(t *testing.T) {
	client, err := NewClient("", 1.85, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	price, live := client.Fetch(context.Background())
	if live || price != 1.85 {
		t.Fatalf("fetch = %v,%v; want backup price, not live", price, live)
	}
}

func TestFetchFallbackIsNotCached(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("BENZINA;1,79\n"))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, 1.85, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if price, live := client.Fetch(context.Background()); live || price != 1.85 {
		t.Fatalf("first fetch = %v,%v; want backup", price, live)
	}
	if price, live := client.Fetch(context.Background()); !live || price != 1.79 {
		t.Fatalf("second fetch = %v,%v; want live retry", price, live)
	}
}

func TestNewClientRejectsBadBackup(t *testing.T) {
	if _, err := NewClient("http://example.invalid", 0, nil); err == nil {
		t.Fatal("zero backup price must be rejected")
	}
}
