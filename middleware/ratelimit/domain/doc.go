// Package domain define a chave do cliente, a janela de contagem, a Decision
// devolvida ao middleware e os contratos de Limiter, SlotPool e StatsStore.
//
// Não importa net/http nem Redis/Prometheus.
package domain
