// Package infra implementa os contratos de domain:
//   - FixedWindowStore: contador por cliente alinhado em now.Truncate(window), com janitor
//   - ChanPool: semáforo em canal para as vagas de parse
//   - RedisStatsStore / PrometheusStatsStore / MultiStatsStore: destino das decisões
package infra
