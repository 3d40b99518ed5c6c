package domain

import "errors"

var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrSubscriptionNotFound = errors.New("subscription record not found")
	ErrMissingSignature     = errors.New("missing stripe-signature header")
	ErrSignatureInvalid     = errors.New("webhook signature verification failed")
	ErrMisconfigured        = errors.New("webhook secret not configured")
	ErrMalformedEvent       = errors.New("malformed webhook event")
	ErrUpstreamFailure      = errors.New("upstream failure")
	ErrStaleEvent           = errors.New("event older than stored subscription state")
)
