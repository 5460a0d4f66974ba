// Package health contiene el DTO de /healthz.
package health

// HealthResponse es la respuesta de GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}
