package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

// Key identifica o cliente: id do usuário vindo do proxy ou IP.
type Key string

// Window é o contador de um cliente na janela corrente.
//
// Invariantes: Count volta a zero quando a janela vira; incrementos são
// atômicos em relação a requisições concorrentes da mesma chave.
type Window struct {
	Start time.Time
	Count int
}

// Limiter decide se uma requisição da chave pode seguir agora e já
// contabiliza a requisição quando permitida.
type Limiter interface {
	Allow(Key) Decision
}

type Decision struct {
	Allowed bool

	Limit     int
	Remaining int
	// ResetAt é quando a janela corrente termina.
	ResetAt time.Time

	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}
