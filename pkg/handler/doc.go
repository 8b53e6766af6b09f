// Package handler implements the built-in business event handlers:
// lead capture, invoice issuance, payment status checks, and inventory
// synchronization. Each handler receives a normalized event envelope
// and the authorized tenant, and stamps its dispatch key and the
// serving tenant into the response meta.
package handler
