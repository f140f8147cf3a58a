package market

import (
	"reflect"
	"testing"
	"time"

	"loadboard/internal/geo"
	"loadboard/internal/model"
)

var day = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func TestGenerateDeterministic(t *testing.T) {
	g := Generator{Cities: geo.Default()}
	a, err := g.Generate(day, 60, 42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := g.Generate(day, 60, 42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same (day, count, seed) produced different pools")
	}
}

func TestGenerateVariesByDayAndSeed(t *testing.T) {
	g := Generator{Cities: geo.Default()}
	a, _ := g.Generate(day, 20, 42)
	b, _ := g.Generate(day.AddDate(0, 0, 1), 20, 42)
	c, _ := g.Generate(day, 20, 43)
	if reflect.DeepEqual(a, b) {
		t.Fatalf("different days produced identical pools")
	}
	if reflect.DeepEqual(a, c) {
		t.Fatalf("different seeds produced identical pools")
	}
}

func TestGenerateBounds(t *testing.T) {
	g := Generator{Cities: geo.Default()}
	loads, err := g.Generate(day, 200, 7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(loads) != 200 {
		t.Fatalf("expected 200 loads, got %d", len(loads))
	}
	seen := map[string]bool{}
	for _, l := range loads {
		if err := Validate(l); err != nil {
			t.Fatalf("invalid load: %v", err)
		}
		if l.Miles < 60 || l.Miles > 2200 {
			t.Fatalf("miles out of range: %+v", l)
		}
		if l.Payout < 250 {
			t.Fatalf("payout below floor: %+v", l)
		}
		if seen[l.ID] {
			t.Fatalf("duplicate load id within day: %s", l.ID)
		}
		seen[l.ID] = true
		if _, ok := g.Cities.Lookup(l.Origin); !ok {
			t.Fatalf("origin not in table: %q", l.Origin)
		}
		if _, ok := g.Cities.Lookup(l.Destination); !ok {
			t.Fatalf("destination not in table: %q", l.Destination)
		}
	}
}

func TestGenerateTooFewCities(t *testing.T) {
	g := Generator{Cities: geo.Table{"Solo, TX": {Lat: 30, Lon: -97}}}
	if _, err := g.Generate(day, 5, 1); err == nil {
		t.Fatalf("expected error for one-city table")
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	bad := []model.Load{
		{ID: "", Origin: "A", Destination: "B", Miles: 100, Payout: 300},
		{ID: "L1", Origin: "A", Destination: "A", Miles: 100, Payout: 300},
		{ID: "L2", Origin: "A", Destination: "B", Miles: 0, Payout: 300},
		{ID: "L3", Origin: "A", Destination: "B", Miles: 100, Payout: -1},
	}
	for _, l := range bad {
		if err := Validate(l); err == nil {
			t.Fatalf("expected validation error for %+v", l)
		}
	}
}
