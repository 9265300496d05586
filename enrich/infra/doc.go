// Package infra contém as implementações concretas das portas de enrich/domain:
// fetch HTTP, extração de HTML e os analisadores de texto.
package infra
