package multirepo

const (
	jobsConfigKeySuffixConstant     = ".jobs"
	forceConfigKeySuffixConstant    = ".force"
	groupsConfigKeySuffixConstant   = ".groups"
	noLogConfigKeySuffixConstant    = ".no_log"
	defaultParallelJobCountConstant = 1
	defaultGroupsSelectorConstant   = "all"
)

// RunConfiguration stores the execution options shared by every multi-repo
// command.
type RunConfiguration struct {
	// ParallelJobs is the number of jobs executed concurrently. One job means
	// commands run directly on the calling goroutine.
	ParallelJobs int `mapstructure:"jobs"`
	// ForceMode keeps the run going after a command failure.
	ForceMode bool `mapstructure:"force"`
	// Groups is a comma separated group filter; "all" selects every
	// repository.
	Groups string `mapstructure:"groups"`
	// NoLog disables appending command details to the workspace command log.
	NoLog bool `mapstructure:"no_log"`
}

// DefaultConfigurationValues returns the configuration defaults keyed under
// the provided prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + jobsConfigKeySuffixConstant:   defaultParallelJobCountConstant,
		configurationKeyPrefix + forceConfigKeySuffixConstant:  false,
		configurationKeyPrefix + groupsConfigKeySuffixConstant: defaultGroupsSelectorConstant,
		configurationKeyPrefix + noLogConfigKeySuffixConstant:  false,
	}
}
