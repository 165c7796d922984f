package itinerary

import "strings"

// Slot is a part of the day.
type Slot string

const (
	Morning   Slot = "morning"
	Afternoon Slot = "afternoon"
	Evening   Slot = "evening"
)

var slots = []Slot{Morning, Afternoon, Evening}

// POI is a catalog attraction. Tags use the catalog's theme vocabulary
// (cultura, gastronomia, natureza, tecnologia).
type POI struct {
	Name      string   `yaml:"name" json:"name"`
	District  string   `yaml:"district" json:"district"`
	Slot      Slot     `yaml:"slot" json:"slot"`
	Tags      []string `yaml:"tags" json:"tags"`
	PriceHint float64  `yaml:"price_hint" json:"price_hint"`
	Indoor    bool     `yaml:"indoor" json:"indoor"`
}

func (p POI) hasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Catalog maps a destination key (see geocode.Key) to its attractions.
type Catalog map[string][]POI

// For returns the attractions for key, or the generic list.
func (c Catalog) For(key string) []POI {
	if pois, ok := c[key]; ok && len(pois) > 0 {
		return pois
	}
	return c[GenericKey]
}

const GenericKey = "generic"

// themeSynonyms maps request themes onto catalog tags.
var themeSynonyms = map[string]string{
	"culture":    "cultura",
	"cultural":   "cultura",
	"history":    "cultura",
	"historia":   "cultura",
	"história":   "cultura",
	"food":       "gastronomia",
	"gastronomy": "gastronomia",
	"culinaria":  "gastronomia",
	"culinária":  "gastronomia",
	"nature":     "natureza",
	"ecoturismo": "natureza",
	"outdoors":   "natureza",
	"technology": "tecnologia",
	"tech":       "tecnologia",
}

// CanonicalTheme maps a user theme onto the catalog vocabulary.
func CanonicalTheme(theme string) string {
	t := strings.ToLower(strings.TrimSpace(theme))
	if syn, ok := themeSynonyms[t]; ok {
		return syn
	}
	return t
}

// DefaultCatalog returns the built-in attraction lists.
func DefaultCatalog() Catalog {
	return Catalog{
		"manaus": {
			{"Teatro Amazonas", "Centro", Afternoon, []string{"cultura"}, 60, true},
			{"Palácio Rio Negro", "Centro", Morning, []string{"cultura"}, 0, true},
			{"Museu da Cidade", "Centro", Morning, []string{"cultura"}, 20, true},
			{"Mercado Adolpho Lisboa", "Centro", Morning, []string{"gastronomia", "cultura"}, 0, false},
			{"Café Regional no Centro", "Centro", Morning, []string{"gastronomia"}, 35, true},
			{"Encontro das Águas (barco)", "Marina", Morning, []string{"natureza"}, 220, false},
			{"MUSA – Museu da Amazônia", "Zona Norte", Afternoon, []string{"natureza", "cultura"}, 50, false},
			{"Praia da Ponta Negra (pôr do sol)", "Ponta Negra", Afternoon, []string{"natureza"}, 0, false},
			{"Anavilhanas (day-trip)", "Marina", Morning, []string{"natureza"}, 480, false},
			{"Praia da Lua", "Zona Oeste", Afternoon, []string{"natureza"}, 0, false},
			{"Jantar – Tacacá/Tambaqui", "Centro", Evening, []string{"gastronomia"}, 70, true},
			{"Restaurante na Ponta Negra", "Ponta Negra", Evening, []string{"gastronomia"}, 95, true},
			{"Bar com música regional", "Centro", Evening, []string{"cultura"}, 50, true},
		},
		"belem": {
			{"Ver-o-Peso", "Centro", Morning, []string{"gastronomia", "cultura"}, 0, false},
			{"Mangal das Garças", "Cidade Velha", Afternoon, []string{"natureza"}, 20, false},
			{"Basílica de Nazaré", "Nazaré", Morning, []string{"cultura"}, 0, true},
			{"Estação das Docas", "Campina", Evening, []string{"gastronomia", "cultura"}, 90, true},
			{"Ilha do Combu (day-trip)", "Ribeirinha", Morning, []string{"natureza"}, 250, false},
		},
		"rio de janeiro": {
			{"Cristo Redentor", "Cosme Velho", Morning, []string{"cultura", "natureza"}, 89, false},
			{"Pão de Açúcar", "Urca", Afternoon, []string{"natureza"}, 140, false},
			{"Museu do Amanhã", "Centro", Afternoon, []string{"cultura", "tecnologia"}, 30, true},
			{"Praia de Copacabana", "Zona Sul", Morning, []string{"natureza"}, 0, false},
			{"Lapa à noite", "Lapa", Evening, []string{"cultura", "gastronomia"}, 70, true},
		},
		"sao paulo": {
			{"Avenida Paulista + MASP", "Paulista", Afternoon, []string{"cultura"}, 50, true},
			{"Beco do Batman", "Vila Madalena", Morning, []string{"cultura"}, 0, false},
			{"Mercadão Municipal", "Centro", Morning, []string{"gastronomia"}, 40, true},
			{"Ibirapuera", "Ibirapuera", Afternoon, []string{"natureza"}, 0, false},
			{"Rooftop/Bar (noite)", "Centro/Zona Sul", Evening, []string{"gastronomia"}, 80, true},
		},
		GenericKey: {
			{"Centro histórico / praça principal", "Centro", Morning, []string{"cultura"}, 0, false},
			{"Museu/galeria mais bem avaliado", "Centro", Afternoon, []string{"cultura"}, 30, true},
			{"Parque urbano / mirante", "Região central", Afternoon, []string{"natureza"}, 0, false},
			{"Mercado público / feira gastronômica", "Centro", Morning, []string{"gastronomia"}, 35, true},
			{"Restaurante típico (noite)", "Centro", Evening, []string{"gastronomia"}, 80, true},
		},
	}
}
