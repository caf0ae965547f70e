package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGeoapifyAutocomplete(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[
			{"properties":{"formatted":"Zomba, Malawi"},"geometry":{"coordinates":[35.32,-15.38]}},
			{"properties":{"formatted":"broken"},"geometry":{"coordinates":[]}}
		]}`))
	}))
	defer srv.Close()

	p := NewGeoapifyProvider("key", srv.URL, time.Second)
	places, err := p.Autocomplete(context.Background(), "Zom", 5)
	if err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	if len(places) != 1 {
		t.Fatalf("got %d places", len(places))
	}
	if places[0].Name != "Zomba, Malawi" || places[0].Lat != -15.38 || places[0].Lon != 35.32 {
		t.Fatalf("unexpected place %+v", places[0])
	}
	if gotQuery != "apiKey=key&limit=5&text=Zom" {
		t.Fatalf("query = %q", gotQuery)
	}
}

func TestGeoapifyErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewGeoapifyProvider("bad", srv.URL, time.Second)
	if _, err := p.Autocomplete(context.Background(), "Blantyre", 5); err == nil {
		t.Fatalf("expected error on 401")
	}
}

func TestDebouncerRunsLastCallOnly(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	got := make(chan string, 4)

	for _, q := range []string{"Bla", "Blan", "Blant"} {
		q := q
		d.Call(func() { got <- q })
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case q := <-got:
		if q != "Blant" {
			t.Fatalf("ran %q, want last query", q)
		}
	case <-time.After(time.Second):
		t.Fatalf("debounced call never ran")
	}

	select {
	case q := <-got:
		t.Fatalf("unexpected extra call %q", q)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	ran := make(chan struct{}, 1)
	d.Call(func() { ran <- struct{}{} })
	d.Stop()
	d.Call(func() { ran <- struct{}{} })

	select {
	case <-ran:
		t.Fatalf("call ran after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}
