// Package domain define os tipos e contratos do enriquecimento de páginas.
//
// Assim como o domain do rate limit, este pacote não depende de net/http nem das
// bibliotecas de extração/NLP. Fetcher, Extractor e os analisadores são portas:
// a camada infra fornece as implementações e os testes usam fakes.
package domain
