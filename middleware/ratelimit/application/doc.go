// Package application decide, sem conhecer net/http, se uma requisição passa:
// Service consulta o Limiter da janela fixa e completa o Retry-After quando o
// limiter não informa; ConcurrencyService reserva uma vaga do SlotPool com timeout.
package application
