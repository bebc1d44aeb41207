package document

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported indicates no registered provider accepts the data.
	ErrUnsupported = errors.New("unsupported document format")
	// ErrEmpty indicates the supplied data was empty.
	ErrEmpty = errors.New("empty document")
	// ErrOpen indicates a provider accepted the data but could not parse it.
	ErrOpen = errors.New("failed to open document")
)

// Opener selects a provider by sniffing the document bytes.
type Opener struct {
	providers []Provider
}

// NewOpener creates an Opener that tries providers in the given order.
func NewOpener(providers ...Provider) *Opener {
	return &Opener{providers: providers}
}

// Open returns the document opened by the first provider that accepts data.
func (o *Opener) Open(data []byte) (Document, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	for _, p := range o.providers {
		if !p.Accepts(data) {
			continue
		}

		doc, err := p.Open(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrOpen, p.Name(), err)
		}
		return doc, nil
	}

	return nil, ErrUnsupported
}

// Providers returns the names of the registered providers.
func (o *Opener) Providers() []string {
	names := make([]string, len(o.providers))
	for i, p := range o.providers {
		names[i] = p.Name()
	}
	return names
}
