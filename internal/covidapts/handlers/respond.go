package handlers

import (
	"errors"
	"net/http"

	e "github.com/Idanushka/CovidApts/internal/covidapts/errors"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// responder renders bodies and errors with the marshalers of the mux the
// routes are registered on.
type responder struct {
	mux    *runtime.ServeMux
	logger *zap.Logger
}

func (rs *responder) writeJSON(w http.ResponseWriter, r *http.Request, code int, v interface{}) {
	_, out := runtime.MarshalerForRequest(rs.mux, r)
	buf, err := out.Marshal(v)
	if err != nil {
		rs.logger.Error("Failed to marshal response", zap.Error(err))
		runtime.HTTPError(r.Context(), rs.mux, out, w, r, status.Error(codes.Internal, "failed to marshal response"))
		return
	}
	w.Header().Set("Content-Type", out.ContentType(v))
	w.WriteHeader(code)
	if _, err := w.Write(buf); err != nil {
		rs.logger.Debug("Failed to write response", zap.Error(err))
	}
}

// writeError renders err as a gRPC status through the mux error handler.
func (rs *responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	_, out := runtime.MarshalerForRequest(rs.mux, r)
	runtime.HTTPError(r.Context(), rs.mux, out, w, r, rs.mapServiceError(err))
}

// mapServiceError maps domain or repository errors to gRPC status codes.
func (rs *responder) mapServiceError(err error) error {
	switch {
	case errors.Is(err, e.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, e.ErrInvalidInput), errors.Is(err, e.ErrInvalidMonth):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		rs.logger.Error("Internal server error", zap.Error(err))
		return status.Error(codes.Internal, "internal server error")
	}
}
