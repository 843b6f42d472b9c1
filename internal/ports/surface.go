package ports

// Surface is a long-running outer interface that exposes the grading pipeline
type Surface interface {
	// Start begins serving and returns once the surface is accepting requests
	Start() error

	// Stop shuts the surface down, letting in-flight requests finish
	Stop() error
}
