package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trip-planner/decision/budget"
	"trip-planner/decision/costmodel"
	"trip-planner/decision/itinerary"
	"trip-planner/decision/planner"
	planerrors "trip-planner/pkg/errors"
)

const dateLayout = "2006-01-02"

// PlanRequest is the wire request for POST /api/v1/plan.
type PlanRequest struct {
	CidadeOrigem    string           `json:"cidade_origem"`
	Destino         string           `json:"destino"`
	DataInicio      string           `json:"data_inicio"`
	DataFim         string           `json:"data_fim"`
	Temas           []string         `json:"temas"`
	NumeroViajantes *int             `json:"numero_viajantes,omitempty"`
	Perfil          string           `json:"perfil"`
	TetoOrcamento   *decimal.Decimal `json:"teto_orcamento,omitempty"`
	Moeda           string           `json:"moeda"`
}

// toTripRequest parses dates and profile. Remaining checks happen in the
// planner.
func (r PlanRequest) toTripRequest() (planner.TripRequest, error) {
	start, err := time.Parse(dateLayout, strings.TrimSpace(r.DataInicio))
	if err != nil {
		return planner.TripRequest{}, planerrors.NewInvalidRequestError("data_inicio", "data_inicio must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(r.DataFim))
	if err != nil {
		return planner.TripRequest{}, planerrors.NewInvalidRequestError("data_fim", "data_fim must be YYYY-MM-DD")
	}
	profile, err := costmodel.ParseProfile(r.Perfil)
	if err != nil {
		return planner.TripRequest{}, err
	}
	// Only an absent count defaults to one; zero or less is rejected downstream.
	travelers := 1
	if r.NumeroViajantes != nil {
		travelers = *r.NumeroViajantes
	}
	return planner.TripRequest{
		Origin:      r.CidadeOrigem,
		Destination: r.Destino,
		StartDate:   start,
		EndDate:     end,
		Travelers:   travelers,
		Profile:     profile,
		Themes:      r.Temas,
		Ceiling:     r.TetoOrcamento,
		Currency:    r.Moeda,
	}, nil
}

// LegResponse is one transport leg.
type LegResponse struct {
	Origem       string      `json:"origem"`
	Destino      string      `json:"destino"`
	Modo         string      `json:"modo"`
	DistanciaKm  float64     `json:"distancia_km"`
	DuracaoHoras float64     `json:"duracao_horas"`
	Retorno      bool        `json:"retorno"`
	Preco        json.Number `json:"preco"`
}

// CostItemResponse is one priced line.
type CostItemResponse struct {
	Categoria     string      `json:"categoria"`
	Descricao     string      `json:"descricao"`
	Quantidade    int         `json:"quantidade"`
	PrecoUnitario json.Number `json:"preco_unitario"`
	Valor         json.Number `json:"valor"`
	Moeda         string      `json:"moeda"`
}

// DayResponse is one itinerary day.
type DayResponse struct {
	Data           string      `json:"data"`
	Manha          []string    `json:"manha"`
	Tarde          []string    `json:"tarde"`
	Noite          []string    `json:"noite"`
	Custo          json.Number `json:"custo_estimado_dia"`
	Narrativa      string      `json:"narrativa"`
	FonteNarrativa string      `json:"fonte_narrativa,omitempty"`
}

// AdjustmentResponse is one applied adaptation step.
type AdjustmentResponse struct {
	Estrategia  string      `json:"estrategia"`
	Parametro   string      `json:"parametro"`
	De          string      `json:"de"`
	Para        string      `json:"para"`
	CustoAntes  json.Number `json:"custo_antes"`
	CustoDepois json.Number `json:"custo_depois"`
	Variacao    json.Number `json:"variacao"`
}

// PeriodResponse is a date range.
type PeriodResponse struct {
	Inicio string `json:"inicio"`
	Fim    string `json:"fim"`
}

// PlanResponse is the wire response for POST /api/v1/plan.
type PlanResponse struct {
	PlanoID                 string               `json:"plano_id"`
	GeradoEm                string               `json:"gerado_em"`
	OrcamentoEstimadoTotal  json.Number          `json:"orcamento_estimado_total"`
	Moeda                   string               `json:"moeda"`
	Legs                    []LegResponse        `json:"legs"`
	CustosItens             []CostItemResponse   `json:"custos_itens"`
	Roteiro                 []DayResponse        `json:"roteiro"`
	ObservacoesGerais       string               `json:"observacoes_gerais"`
	TempoVooTotal           string               `json:"tempo_voo_total,omitempty"`
	TempoTransitoHoras      float64              `json:"tempo_transito_horas"`
	EconomiaVsBase          json.Number          `json:"economia_vs_base"`
	OrcamentoBase           json.Number          `json:"orcamento_base"`
	RiscoClimatico          string               `json:"risco_climatico"`
	EmissaoCO2Kg            float64              `json:"emissao_co2_kg"`
	AjustesAplicados        []AdjustmentResponse `json:"ajustes_aplicados"`
	TetoAtingido            bool                 `json:"teto_atingido"`
	StatusAdaptacao         string               `json:"status_adaptacao"`
	PeriodoSolicitado       PeriodResponse       `json:"periodo_solicitado"`
	PeriodoAjustado         *PeriodResponse      `json:"periodo_ajustado,omitempty"`
	TetoOrcamentoUtilizado  *json.Number         `json:"teto_orcamento_utilizado,omitempty"`
	PerfilUtilizado         string               `json:"perfil_utilizado"`
	Sugestoes               []string             `json:"sugestoes"`
	TemasSemCorrespondencia []string             `json:"temas_sem_correspondencia,omitempty"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func round1(f float64) float64 {
	return decimal.NewFromFloat(f).Round(1).InexactFloat64()
}

func activityNames(acts []itinerary.Activity) []string {
	names := make([]string, len(acts))
	for i, a := range acts {
		names[i] = a.Name
	}
	return names
}

func period(start, end time.Time) PeriodResponse {
	return PeriodResponse{Inicio: start.Format(dateLayout), Fim: end.Format(dateLayout)}
}

// NewPlanResponse converts a plan to its wire form.
func NewPlanResponse(res *planner.PlanResult) PlanResponse {
	legs := make([]LegResponse, len(res.Legs))
	for i, l := range res.Legs {
		legs[i] = LegResponse{
			Origem:       l.Origin,
			Destino:      l.Destination,
			Modo:         string(l.Mode),
			DistanciaKm:  round1(l.DistanceKm),
			DuracaoHoras: round1(l.DurationHours),
			Retorno:      l.Return,
			Preco:        money(l.Price),
		}
	}

	items := make([]CostItemResponse, len(res.Items))
	for i, it := range res.Items {
		items[i] = CostItemResponse{
			Categoria:     string(it.Category),
			Descricao:     it.Description,
			Quantidade:    it.Quantity,
			PrecoUnitario: money(it.UnitPrice),
			Valor:         money(it.Amount),
			Moeda:         it.Currency,
		}
	}

	days := make([]DayResponse, len(res.Days))
	for i, d := range res.Days {
		days[i] = DayResponse{
			Data:           d.Date.Format(dateLayout),
			Manha:          activityNames(d.Morning),
			Tarde:          activityNames(d.Afternoon),
			Noite:          activityNames(d.Evening),
			Custo:          money(d.Cost),
			Narrativa:      d.Narrative,
			FonteNarrativa: d.NarrativeSource,
		}
	}

	adjustments := make([]AdjustmentResponse, len(res.Adaptations))
	for i, a := range res.Adaptations {
		adjustments[i] = adjustmentResponse(a)
	}

	resp := PlanResponse{
		PlanoID:                 res.ID.String(),
		GeradoEm:                res.GeneratedAt.Format(time.RFC3339),
		OrcamentoEstimadoTotal:  money(res.Total),
		Moeda:                   res.Currency,
		Legs:                    legs,
		CustosItens:             items,
		Roteiro:                 days,
		ObservacoesGerais:       res.Observations,
		TempoVooTotal:           res.FlightTime,
		TempoTransitoHoras:      round1(res.TransitHours),
		EconomiaVsBase:          money(res.Savings),
		OrcamentoBase:           money(res.BaselineTotal),
		RiscoClimatico:          res.ClimateRisk.Label,
		EmissaoCO2Kg:            round1(res.CarbonKgCO2e),
		AjustesAplicados:        adjustments,
		TetoAtingido:            res.CeilingMet,
		StatusAdaptacao:         string(res.AdaptationStatus),
		PeriodoSolicitado:       period(res.RequestedStart, res.RequestedEnd),
		PerfilUtilizado:         res.Profile.Portuguese(),
		Sugestoes:               res.Suggestions,
		TemasSemCorrespondencia: res.UnmatchedThemes,
	}
	if resp.Sugestoes == nil {
		resp.Sugestoes = []string{}
	}
	if res.PeriodAdjusted() {
		p := period(res.EffectiveStart, res.EffectiveEnd)
		resp.PeriodoAjustado = &p
	}
	if res.Ceiling != nil {
		c := money(*res.Ceiling)
		resp.TetoOrcamentoUtilizado = &c
	}
	return resp
}

func adjustmentResponse(r budget.Record) AdjustmentResponse {
	return AdjustmentResponse{
		Estrategia:  r.Strategy,
		Parametro:   r.Parameter,
		De:          r.From,
		Para:        r.To,
		CustoAntes:  money(r.CostBefore),
		CustoDepois: money(r.CostAfter),
		Variacao:    money(r.Delta),
	}
}

// GeocodeResponse is the wire response for GET /api/v1/geocode.
type GeocodeResponse struct {
	Nome  string  `json:"nome"`
	Chave string  `json:"chave,omitempty"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Fonte string  `json:"fonte"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Subject string `json:"subject,omitempty"`
}
