package domain

import "strings"

const (
	FreeTopK        = 8
	FreeMaxChars    = 3000
	DefaultTopK     = 12
	DefaultMaxChars = 8000
)

// PlanLimits limita o custo do enriquecimento por requisição.
// Derivado do header de plano; nunca é persistido.
type PlanLimits struct {
	TopK     int `json:"top_k"`
	MaxChars int `json:"max_chars"`
}

// IsFreePlan: match por substring "free", sem diferenciar maiúsculas.
// "BASIC-FREE", "free" e "Freemium" caem todos no plano gratuito.
func IsFreePlan(plan string) bool {
	return strings.Contains(strings.ToLower(plan), "free")
}

// LimitsForPlan resolve os limites do plano. maxChars é o teto configurado
// (MAX_ENRICH_CHARS); o plano free nunca passa de FreeMaxChars.
func LimitsForPlan(plan string, maxChars int) PlanLimits {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if IsFreePlan(plan) {
		return PlanLimits{TopK: FreeTopK, MaxChars: min(FreeMaxChars, maxChars)}
	}
	return PlanLimits{TopK: DefaultTopK, MaxChars: maxChars}
}

// Normalize garante limites positivos.
func (l PlanLimits) Normalize() PlanLimits {
	if l.TopK <= 0 {
		l.TopK = DefaultTopK
	}
	if l.MaxChars <= 0 {
		l.MaxChars = DefaultMaxChars
	}
	return l
}
