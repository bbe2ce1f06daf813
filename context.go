package goIdentity

import "context"

type clientIPContextKey struct{}
type userAgentContextKey struct{}
type locationContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine stamps it
// onto login records, activities, and audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the caller's user-agent string to ctx. Used as the
// device field of login records and on activities.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// WithLocation attaches a coarse location label to ctx for login records.
// Resolution (GeoIP or otherwise) is the hosting layer's concern.
func WithLocation(ctx context.Context, location string) context.Context {
	return context.WithValue(ctx, locationContextKey{}, location)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return "0.0.0.0"
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	if ip == "" {
		return "0.0.0.0"
	}
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}

func locationFromContext(ctx context.Context) string {
	if ctx == nil {
		return "Unknown"
	}

	location, _ := ctx.Value(locationContextKey{}).(string)
	if location == "" {
		return "Unknown"
	}
	return location
}
