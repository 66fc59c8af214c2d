package config

const (
	defaultDataDir            = "~/.local/share/msgvault"
	defaultLogDir             = "~/.local/share/msgvault/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultCleanupRetryBudget   = 3
	defaultCleanupScanRows      = 500
	defaultCleanupDeleteBatch   = 200
	defaultCleanupRecencyWindow = 15
)

// Default returns a Config populated with repository defaults. Blob
// directories are left empty here; normalize derives them from DataDir when
// the config file does not override them.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Cleanup: Cleanup{
			RetryBudget:          defaultCleanupRetryBudget,
			ScanBatchRows:        defaultCleanupScanRows,
			DeleteBatchSize:      defaultCleanupDeleteBatch,
			RecencyWindowMinutes: defaultCleanupRecencyWindow,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
