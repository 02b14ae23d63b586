package serviceiface

// Service is a long-running part of the recon server. The app manager
// starts services in start_order and stops them in reverse.
type Service interface {
	// Name is the key used in services.yaml.
	Name() string
	Start() error
	Stop() error
}
