package api

import (
	"github.com/JaimeStill/shroud/internal/redaction"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Redaction redaction.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	return &Domain{
		Redaction: redaction.New(
			runtime.Opener,
			runtime.Aggregator,
			runtime.Workers,
			runtime.Logger,
		),
	}
}
