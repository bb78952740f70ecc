// Package exitcode provides standardized exit codes for bundlecheck
package exitcode

// Exit codes for bundlecheck CLI
const (
	Success = 0
	// RemediationNeeded signals offending dependencies or an unusable source
	// map. Build tooling only distinguishes zero from non-zero.
	RemediationNeeded = 1
	GeneralError      = 1
	ConfigError       = 2
	ValidationError   = 3
	FileSystemError   = 4
	UnsupportedFormat = 8
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case RemediationNeeded:
		return "Remediation needed"
	case ConfigError:
		return "Configuration error"
	case ValidationError:
		return "Validation error"
	case FileSystemError:
		return "File system error"
	case UnsupportedFormat:
		return "Unsupported format"
	default:
		return "Unknown error"
	}
}
