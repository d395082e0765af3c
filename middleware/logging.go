package middleware

import (
	"context"
	"time"

	clienterrors "github.com/kbukum/payclient/errors"
	"github.com/kbukum/payclient/httpclient"
	"github.com/kbukum/payclient/logger"
)

// Logging logs every logical request with method, path, status and
// duration. Header values flagged sensitive are logged as [REDACTED].
type Logging struct {
	log *logger.Logger
}

// NewLogging returns a Logging middleware.
func NewLogging(log *logger.Logger) *Logging {
	return &Logging{log: log.WithComponent("http")}
}

// Handle implements Middleware.
func (l *Logging) Handle(ctx context.Context, req *httpclient.Request, next Next) (*httpclient.Response, error) {
	log := l.log.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldMethod, req.Method,
		logger.FieldPath, req.URLPath(),
	))
	start := time.Now()

	log.Debug("request started", logger.Fields(logger.FieldHeaders, req.RedactedHeaders()))

	resp, err := next.Run(ctx, req)

	fields := logger.DurationFields(req.Method+" "+req.URLPath(), time.Since(start))

	if err != nil {
		fields["kind"] = clienterrors.KindOf(err).String()
		if apiErr, ok := clienterrors.AsAPIError(err); ok {
			fields[logger.FieldStatus] = apiErr.Status
			if apiErr.TraceID != "" {
				fields[logger.FieldCorrelationID] = apiErr.TraceID
			}
		}
		log.WithError(err).Warn("request failed", fields)
		return resp, err
	}

	fields[logger.FieldStatus] = resp.StatusCode
	if id := resp.Header.Get(clienterrors.CorrelationIDHeader); id != "" {
		fields[logger.FieldCorrelationID] = id
	}
	log.Debug("request completed", fields)
	return resp, nil
}
