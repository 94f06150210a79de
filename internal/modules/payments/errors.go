package payments

import "errors"

var (
	ErrGatewayNotConfigured = errors.New("payments: gateway credentials not configured")
	ErrFxRateNotConfigured  = errors.New("payments: fx rate not configured for required conversion")
	ErrUnsupportedFxPair    = errors.New("payments: unsupported currency conversion pair")
	ErrBadSignature         = errors.New("payments: webhook signature verification failed")
)
