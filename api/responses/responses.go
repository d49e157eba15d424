package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

// identifiers lifted from error details onto the log line
var correlatedDetailKeys = []string{"product_id", "order_id", "franchise_id"}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, SuccessEnvelope{Data: data})
}

// WriteError maps err onto the error envelope. Untyped errors become
// INTERNAL_ERROR and never leak their text to the client.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	logRejection(ctx, logg, err, typed, meta)
	writeJSON(w, meta.HTTPStatus, ErrorEnvelope{Error: toAPIError(typed, meta)})
}

func toAPIError(typed *pkgerrors.Error, meta pkgerrors.Metadata) APIError {
	out := APIError{
		Code:    string(typed.Code()),
		Message: meta.PublicMessage,
	}
	if meta.ExposeMessage && typed.Message() != "" {
		out.Message = typed.Message()
	}
	if meta.DetailsAllowed {
		out.Details = typed.Details()
	}
	return out
}

func logRejection(ctx context.Context, logg *logger.Logger, err error, typed *pkgerrors.Error, meta pkgerrors.Metadata) {
	if logg == nil {
		return
	}
	fields := pkgerrors.Dump(err).Fields()
	if detailMap, ok := typed.Details().(map[string]any); ok {
		for _, key := range correlatedDetailKeys {
			if v, found := detailMap[key]; found {
				fields[key] = v
			}
		}
	}
	ctx = logg.WithFields(ctx, fields)

	if meta.HTTPStatus >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
		return
	}
	logg.Warn(ctx, "request.rejected")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"response.encode_failed","err":"%v"}`, err)
	}
}
