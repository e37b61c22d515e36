package core

// Environment is the deployment environment the service runs in. It mainly
// drives logging verbosity and output format.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether the service runs in production.
func (e Environment) IsProduction() bool {
	return e == Production
}

// ParseEnvironment maps a raw config value onto a known environment.
// Anything unrecognised counts as development so a misconfigured box
// logs verbosely instead of silently.
func ParseEnvironment(v string) Environment {
	switch Environment(v) {
	case Production, Staging, Testing:
		return Environment(v)
	default:
		return Development
	}
}
