package call

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StatusCoder is implemented by errors that carry an HTTP status code from the remote side.
type StatusCoder interface {
	HTTPStatus() int
}

// Classification is the result of mapping an error onto the outcome taxonomy.
type Classification struct {
	Kind       Kind
	Reason     Reason
	Retryable  bool
	Message    string
	RetryAfter time.Duration
}

// Classify maps an error returned by an operation to a remote or transport failure.
// Unrecognised errors are transport failures with the raw message preserved.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Kind: KindSuccess}
	}

	c := classify(err)
	c.Message = err.Error()
	if c.Reason == ReasonCancelled {
		c.Message = "cancelled"
	}

	var se *ServiceError
	if errors.As(err, &se) && se.Message != "" {
		c.Message = se.Message
	}

	var noRetry *NoRetryError
	if errors.As(err, &noRetry) {
		// An unrecognised error marked permanent was rejected by the client itself.
		if c.Kind == KindTransportError && c.Reason == ReasonTransport {
			c.Kind, c.Reason = KindRemoteError, ReasonRemote
		}
		c.Retryable = false
	}

	var ra *RetryAfterError
	if errors.As(err, &ra) {
		c.RetryAfter = ra.Delay
	} else if se != nil {
		c.RetryAfter = se.RetryAfter
	}

	return c
}

func classify(err error) Classification {
	// Context errors first: an operation that honoured its context should
	// resolve the same way as one abandoned by the wrapper.
	if errors.Is(err, context.Canceled) {
		return transport(ReasonCancelled)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return transport(ReasonTimeout)
	}

	var se *ServiceError
	if errors.As(err, &se) {
		return remote(se.Reason)
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		return remote(ReasonForHTTPStatus(sc.HTTPStatus()))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return remote(ReasonForHTTPStatus(apiErr.HTTPStatusCode))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return remote(ReasonForHTTPStatus(reqErr.HTTPStatusCode))
	}

	if s, ok := status.FromError(err); ok && s.Code() != codes.OK {
		return classifyGRPC(s.Code())
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return remote(reasonForSQLState(pgErr.Code))
	}

	return classifyNetwork(err)
}

// ReasonForHTTPStatus maps an HTTP status code to a remote failure reason.
func ReasonForHTTPStatus(code int) Reason {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ReasonAuthentication
	case code == http.StatusNotFound:
		return ReasonNotFound
	case code == http.StatusTooManyRequests:
		return ReasonRateLimited
	case code == http.StatusBadRequest || code == http.StatusConflict ||
		code == http.StatusUnprocessableEntity:
		return ReasonMalformedRequest
	case code >= 500:
		return ReasonServer
	default:
		return ReasonRemote
	}
}

func classifyGRPC(code codes.Code) Classification {
	switch code {
	case codes.Unauthenticated, codes.PermissionDenied:
		return remote(ReasonAuthentication)
	case codes.NotFound:
		return remote(ReasonNotFound)
	case codes.ResourceExhausted:
		return remote(ReasonRateLimited)
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return remote(ReasonMalformedRequest)
	case codes.Internal, codes.Unknown, codes.Aborted:
		return remote(ReasonServer)
	case codes.Unavailable:
		return transport(ReasonTransport)
	case codes.DeadlineExceeded:
		return transport(ReasonTimeout)
	case codes.Canceled:
		return transport(ReasonCancelled)
	default:
		return remote(ReasonRemote)
	}
}

func reasonForSQLState(code string) Reason {
	switch {
	case strings.HasPrefix(code, "28"): // invalid authorization
		return ReasonAuthentication
	case code == "3D000": // invalid_catalog_name
		return ReasonNotFound
	case code == "53300": // too_many_connections
		return ReasonRateLimited
	case strings.HasPrefix(code, "42"): // syntax error or access rule violation
		return ReasonMalformedRequest
	default:
		return ReasonRemote
	}
}

func classifyNetwork(err error) Classification {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return transport(ReasonTimeout)
		}
		return transport(ReasonDNSFailure)
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return transport(ReasonConnectionRefused)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return transport(ReasonTimeout)
	}

	// Some SDKs flatten network errors into strings.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return transport(ReasonConnectionRefused)
	case strings.Contains(msg, "no such host"):
		return transport(ReasonDNSFailure)
	case strings.Contains(msg, "i/o timeout"),
		strings.Contains(msg, "client.timeout exceeded"),
		strings.Contains(msg, "deadline exceeded"):
		return transport(ReasonTimeout)
	}

	return transport(ReasonTransport)
}

func remote(reason Reason) Classification {
	return Classification{Kind: KindRemoteError, Reason: reason, Retryable: reason.Retryable()}
}

func transport(reason Reason) Classification {
	return Classification{Kind: KindTransportError, Reason: reason, Retryable: reason != ReasonCancelled}
}

func fromError[T any](err error) Outcome[T] {
	c := Classify(err)
	var out Outcome[T]
	if c.Kind == KindRemoteError {
		out = RemoteFailure[T](c.Reason, c.Message, c.Retryable)
	} else {
		out = TransportFailure[T](c.Reason, c.Message)
		out.retryable = c.Retryable
	}
	out.retryAfter = c.RetryAfter
	return out
}
