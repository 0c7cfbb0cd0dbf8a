package constants

import "slices"

// Environment represents the execution environment (e.g., CLI, daemon).
type Environment string

// Environment types for logger configuration.
const (
	Development Environment = "development"
	Production  Environment = "production"
	CLI         Environment = "cli"
)

// ServiceType identifies how the platform runs a declared service.
type ServiceType string

const (
	// WebService serves HTTP traffic on the platform-injected port.
	WebService ServiceType = "web"
	// WorkerService runs a long-lived background process.
	WorkerService ServiceType = "worker"
	// CronService runs on a schedule and exits.
	CronService ServiceType = "cron"
	// StaticService publishes built assets without a running process.
	StaticService ServiceType = "static"
)

// KnownServiceTypes returns the service types the platform recognizes.
// Unrecognized types are a validation warning, not an error, so newer
// platform types don't break older tooling.
func KnownServiceTypes() []ServiceType {
	return []ServiceType{WebService, WorkerService, CronService, StaticService}
}

// IsKnownServiceType reports whether t is a recognized service type.
func IsKnownServiceType(t ServiceType) bool {
	return slices.Contains(KnownServiceTypes(), t)
}

// KnownRuntimes are the runtime environments the platform provisions,
// declared in a service's env field.
var KnownRuntimes = []string{
	"docker",
	"elixir",
	"go",
	"node",
	"python",
	"ruby",
	"rust",
	"static",
}

// IsKnownRuntime reports whether env names a recognized runtime.
func IsKnownRuntime(env string) bool {
	return slices.Contains(KnownRuntimes, env)
}

// KnownPlans are the instance plans the platform offers.
var KnownPlans = []string{
	"free",
	"starter",
	"standard",
	"pro",
}

// IsKnownPlan reports whether plan names a recognized instance plan.
func IsKnownPlan(plan string) bool {
	return slices.Contains(KnownPlans, plan)
}

// PortEnvVar is the environment variable the platform injects with the
// port a web service must bind to.
const PortEnvVar = "PORT"
