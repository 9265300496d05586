package api

import (
	"errors"
	"net/http"

	"url-insights/enrich/domain"
	"url-insights/respond"
)

// statusFor traduz o Kind do erro de domínio para status HTTP e tipo público.
func statusFor(kind domain.Kind) (int, string) {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest, respond.TypeInvalidRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized, respond.TypeUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden, respond.TypeForbidden
	case domain.KindRateLimit:
		return http.StatusTooManyRequests, respond.TypeRateLimited
	case domain.KindFetch:
		return http.StatusBadGateway, respond.TypeFetchFailed
	case domain.KindTimeout:
		return http.StatusGatewayTimeout, respond.TypeTimeout
	case domain.KindExtraction:
		return http.StatusUnprocessableEntity, respond.TypeParseFailed
	case domain.KindUnsupported:
		return http.StatusUnsupportedMediaType, respond.TypeUnsupportedMedia
	default:
		return http.StatusInternalServerError, respond.TypeInternal
	}
}

func writeError(w http.ResponseWriter, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		respond.Error(w, http.StatusRequestEntityTooLarge, respond.TypePayloadTooLarge, "body too large")
		return
	}

	kind := domain.KindOf(err)
	status, typ := statusFor(kind)
	msg := domain.Message(err)
	if kind == domain.KindInternal {
		// nunca expõe detalhe interno
		msg = "unexpected error"
	}
	respond.Error(w, status, typ, msg)
}
