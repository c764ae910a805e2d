// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic   SecurityLevel = iota // No authentication
	SecurityCallback                      // Payment gateway shared token
	SecurityAccess                        // Access token required
	SecurityAdmin                         // Access token with admin role
)

// RouteSecurityConfig maps "METHOD path-template" to the required security level.
// Routes missing from the map require an access token.
var RouteSecurityConfig = map[string]SecurityLevel{
	// Operational
	"GET /healthz": SecurityPublic,
	"GET /metrics": SecurityPublic,

	// Equipment - Public
	"GET /api/v1/equipment/{id}":              SecurityPublic,
	"GET /api/v1/equipment/{id}/availability": SecurityPublic,

	// Equipment - Access Protected
	"POST /api/v1/equipment":             SecurityAccess,
	"PUT /api/v1/equipment/{id}/status":  SecurityAccess,
	"POST /api/v1/equipment/{id}/return": SecurityAccess,

	// Orders - Access Protected
	"POST /api/v1/orders":                 SecurityAccess,
	"GET /api/v1/orders":                  SecurityAccess,
	"GET /api/v1/orders/{id}":             SecurityAccess,
	"POST /api/v1/orders/{id}/transition": SecurityAccess,
	"POST /api/v1/orders/{id}/cancel":     SecurityAccess,
	"POST /api/v1/orders/{id}/payments":   SecurityAccess,

	// Payment gateway
	"POST /api/v1/payments/callback": SecurityCallback,

	// Admin
	"POST /api/v1/admin/reconcile": SecurityAdmin,
}

// RouteSecurity returns the security level for a route, defaulting to SecurityAccess.
func RouteSecurity(method, pathTemplate string) SecurityLevel {
	if level, ok := RouteSecurityConfig[method+" "+pathTemplate]; ok {
		return level
	}
	return SecurityAccess
}
