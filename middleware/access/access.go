// Package access aplica a política de acesso do proxy (RapidAPI) e resolve o
// plano do cliente em limites de enriquecimento.
package access

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"url-insights/enrich/domain"
	"url-insights/middleware/requestlog"
	"url-insights/respond"
)

const (
	HeaderUser         = "X-RapidAPI-User"
	HeaderProxySecret  = "X-RapidAPI-Proxy-Secret"
	HeaderHost         = "X-RapidAPI-Host"
	HeaderSubscription = "X-RapidAPI-Subscription"
)

type Options struct {
	// Enforce liga as checagens de identidade, segredo e host.
	Enforce bool
	Secret  string
	// Host, quando definido, precisa bater com o header de host.
	Host string
	// MaxChars é o teto configurado de texto analisado (MAX_ENRICH_CHARS).
	MaxChars int

	UserHeader         string
	SecretHeader       string
	HostHeader         string
	SubscriptionHeader string

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.UserHeader == "" {
		o.UserHeader = HeaderUser
	}
	if o.SecretHeader == "" {
		o.SecretHeader = HeaderProxySecret
	}
	if o.HostHeader == "" {
		o.HostHeader = HeaderHost
	}
	if o.SubscriptionHeader == "" {
		o.SubscriptionHeader = HeaderSubscription
	}
	if o.MaxChars <= 0 {
		o.MaxChars = domain.DefaultMaxChars
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Grant é o que a política decidiu para a requisição.
type Grant struct {
	Client string
	Plan   string
	Limits domain.PlanLimits
}

type ctxKey struct{}

// GrantFrom devolve o Grant gravado pelo Middleware. Sem Middleware, limites padrão.
func GrantFrom(ctx context.Context) (Grant, bool) {
	g, ok := ctx.Value(ctxKey{}).(Grant)
	return g, ok
}

// LimitsFrom atalho para os limites do plano da requisição.
func LimitsFrom(ctx context.Context) domain.PlanLimits {
	if g, ok := GrantFrom(ctx); ok {
		return g.Limits
	}
	return domain.LimitsForPlan("", domain.DefaultMaxChars)
}

// Check avalia a política. Devolve status 0 quando a requisição pode seguir.
func Check(opts Options, r *http.Request) (status int, typ, msg string) {
	opts = opts.withDefaults()
	if !opts.Enforce {
		return 0, "", ""
	}

	if strings.TrimSpace(r.Header.Get(opts.UserHeader)) == "" {
		return http.StatusUnauthorized, respond.TypeUnauthorized, "missing " + opts.UserHeader
	}

	got := r.Header.Get(opts.SecretHeader)
	if got == "" || opts.Secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(opts.Secret)) != 1 {
		return http.StatusForbidden, respond.TypeForbidden, "invalid proxy secret"
	}

	if opts.Host != "" && !strings.EqualFold(strings.TrimSpace(r.Header.Get(opts.HostHeader)), opts.Host) {
		return http.StatusForbidden, respond.TypeForbidden, "invalid proxy host"
	}
	return 0, "", ""
}

// PlanFromRequest lê o plano do header de assinatura ("" quando ausente).
func PlanFromRequest(r *http.Request, header string) string {
	if header == "" {
		header = HeaderSubscription
	}
	return strings.TrimSpace(r.Header.Get(header))
}

// Middleware bloqueia requisições fora da política e, para as aceitas, grava
// plano e limites no contexto.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	opts = opts.withDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// identidade vai para o log mesmo quando a política recusa
			if client := strings.TrimSpace(r.Header.Get(opts.UserHeader)); client != "" {
				requestlog.Annotate(r.Context(), "client", client)
			}

			if status, typ, msg := Check(opts, r); status != 0 {
				opts.Logger.Debug("access denied", "status", status, "reason", msg, "path", r.URL.Path)
				respond.Error(w, status, typ, msg)
				return
			}

			plan := PlanFromRequest(r, opts.SubscriptionHeader)
			g := Grant{
				Client: strings.TrimSpace(r.Header.Get(opts.UserHeader)),
				Plan:   plan,
				Limits: domain.LimitsForPlan(plan, opts.MaxChars),
			}

			ctx := r.Context()
			if g.Plan != "" {
				requestlog.Annotate(ctx, "plan", g.Plan)
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, ctxKey{}, g)))
		})
	}
}
