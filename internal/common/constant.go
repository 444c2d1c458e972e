package common

// AuthorizationHeaderName carries the upload bearer token.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName tags every upload request so client and node logs
// can be correlated.
const RequestIDHeaderName = "X-Request-ID"

// Default values shared by the client config and the development node.
const (
	DefaultAddressPrefix = "atl"
	DefaultChainID       = "atlas-1"
	DefaultReplicas      = 3
	DefaultSubscription  = "sub_0"
)
