package interceptors

import (
	middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"google.golang.org/grpc"
)

// UnaryInterceptor chains panic recovery, request logging and, when enabled,
// Sentry error reporting. Recovery is outermost so that panics in the other
// interceptors are caught too.
func UnaryInterceptor(sentryEnabled bool) grpc.ServerOption {
	chain := []grpc.UnaryServerInterceptor{
		unaryRecoveryInterceptor(sentryEnabled),
		unaryLogger,
	}
	if sentryEnabled {
		chain = append(chain, unarySentryErrorReporter)
	}
	return grpc.UnaryInterceptor(middleware.ChainUnaryServer(chain...))
}

// StreamInterceptor is the streaming counterpart of UnaryInterceptor, used
// by the health Watch method.
func StreamInterceptor(sentryEnabled bool) grpc.ServerOption {
	chain := []grpc.StreamServerInterceptor{
		streamRecoveryInterceptor(sentryEnabled),
		streamLogger,
	}
	if sentryEnabled {
		chain = append(chain, streamSentryErrorReporter)
	}
	return grpc.StreamInterceptor(middleware.ChainStreamServer(chain...))
}
