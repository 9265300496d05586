// Package requestlog é a camada mais externa do servidor HTTP: atribui o
// X-Request-ID, aplica headers de segurança, limita o tamanho do corpo e
// escreve um registro de acesso estruturado (slog) por requisição.
//
// Middlewares internos enriquecem o registro com Annotate(ctx, chave, valor),
// por exemplo o plano e a identidade do cliente resolvidos pela política de acesso.
package requestlog
