// Package search implements the conversational multimodal dish-selection
// orchestrator: it projects the live catalog into flat records, builds one
// instruction payload per turn, invokes a generative backend, and reconciles
// the untrusted response against the catalog.
package search

import "context"

// Record is one flattened (restaurant, dish) pair sent to and returned by the
// generative backend. Records are rebuilt from the live catalog on every call
// and never mutated in place.
type Record struct {
	RestaurantID   string  `json:"restaurant_id"`
	RestaurantName string  `json:"restaurant_name"`
	DishName       string  `json:"dish_name"`
	DishPrice      float64 `json:"dish_price"`
}

// Key returns the deduplication key for a record. Two records with equal keys
// refer to the same dish.
func (r Record) Key() string {
	return r.RestaurantID + "-" + r.DishName
}

// ImageDescriptor is an immutable base64 image attachment. It carries no
// reference to the filesystem path it was read from.
type ImageDescriptor struct {
	Data     string
	MIMEType string
}

// Request is the backend-agnostic payload handed to a Generator. The full
// catalog and selection instructions are contained in Instructions; the
// backend holds no session state between calls.
type Request struct {
	Instructions string
	Image        *ImageDescriptor
}

// Chunk is one raw text fragment of a streamed response, or a terminal error.
type Chunk struct {
	Text string
	Err  error
}

// Generator is the generative-inference backend boundary. Implementations
// live in the gemini and claude subpackages.
type Generator interface {
	// Generate performs a blocking call and returns the raw response text.
	Generate(ctx context.Context, req Request) (string, error)
	// GenerateStream returns a finite, single-consumer sequence of raw text
	// fragments whose concatenation equals a blocking response. The channel
	// is closed when the stream ends or ctx is cancelled; consumers may stop
	// draining at any point.
	GenerateStream(ctx context.Context, req Request) (<-chan Chunk, error)
}
