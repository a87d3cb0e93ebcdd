// Package web provides the HTTP surface of the service: the interest
// webhook endpoint and the admin records endpoints.
package web

// WebhookResponse is the envelope returned to the webhook caller. Success
// reflects only validation and the row-upsert path; best-effort side effects
// never change it.
type WebhookResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
