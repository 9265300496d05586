// Package ratelimit fornece adapters HTTP (net/http) para rate limit e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (janela fixa, semáforo, stats), detalhes de infraestrutura
//   - ratelimit (este pacote): middlewares HTTP + extração de chave + tradução para status/headers
//
// Fluxo no serviço:
//
//  1. Extrai a chave do cliente (header de identidade do proxy, XFF ou RemoteAddr)
//  2. Chama a camada application para obter a decisão
//  3. Se bloqueado, responde 429 (rate limit) ou 503 (concorrência) com corpo JSON
//  4. Se permitido, chama o próximo handler (pipeline de parse)
//
// As variáveis RATE_LIMIT_PER_MIN, RATE_WINDOW, CONCURRENCY_MAX e CONCURRENCY_TIMEOUT
// do binário cmd/url-insights controlam o comportamento.
package ratelimit
