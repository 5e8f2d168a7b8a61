package registry

// Service is the interface for every long-running agent component.
type Service interface {
	Start() error
	Stop() error
}
