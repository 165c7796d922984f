package geocode

import (
	"context"
	"fmt"
)

type city struct {
	Lat, Lon float64
	Label    string
}

var cities = map[string]city{
	"sao paulo":      {-23.5505, -46.6333, "São Paulo, SP"},
	"rio de janeiro": {-22.9068, -43.1729, "Rio de Janeiro, RJ"},
	"manaus":         {-3.1190, -60.0217, "Manaus, AM"},
	"belem":          {-1.4558, -48.4902, "Belém, PA"},
	"brasilia":       {-15.7939, -47.8828, "Brasília, DF"},
	"salvador":       {-12.9777, -38.5016, "Salvador, BA"},
	"recife":         {-8.0476, -34.8770, "Recife, PE"},
	"curitiba":       {-25.4284, -49.2733, "Curitiba, PR"},
	"porto alegre":   {-30.0346, -51.2177, "Porto Alegre, RS"},
	"florianopolis":  {-27.5949, -48.5482, "Florianópolis, SC"},
}

var aliases = map[string]string{
	"amazonia": "manaus",
	"rio":      "rio de janeiro",
	"sp":       "sao paulo",
	"poa":      "porto alegre",
	"floripa":  "florianopolis",
	"bsb":      "brasilia",
}

// Key maps a place name to its catalog key, following aliases. The second
// result is false when the name is not in the catalog.
func Key(name string) (string, bool) {
	k := Normalize(name)
	if _, ok := cities[k]; ok {
		return k, true
	}
	if a, ok := aliases[k]; ok {
		return a, true
	}
	return k, false
}

// Catalog resolves names against a fixed table of Brazilian capitals.
type Catalog struct{}

func NewCatalog() *Catalog { return &Catalog{} }

func (c *Catalog) Resolve(ctx context.Context, name string) (GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return GeoPoint{}, err
	}
	key, ok := Key(name)
	if !ok {
		return GeoPoint{}, fmt.Errorf("%w: %q not in catalog", ErrNotFound, name)
	}
	ct := cities[key]
	return GeoPoint{Lat: ct.Lat, Lon: ct.Lon, Label: ct.Label, Key: key, Source: "catalog"}, nil
}
