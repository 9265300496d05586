// Package application orquestra o enriquecimento: Pipeline executa
// fetch → extração → análise e Service coloca cache e single-flight na frente.
//
// Depende só de enrich/domain (portas) e do cache; não conhece net/http.
package application
