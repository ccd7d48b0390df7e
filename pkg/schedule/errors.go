package schedule

import "fmt"

// Machine-readable configuration error codes.
const (
	CodeRateBandGap = "RATE_BAND_GAP"
)

// ConfigError indicates that the supplied rate bands or series cannot support
// schedule generation. It is never patched silently; the offending range is
// carried in Details.
type ConfigError struct {
	Code    string
	Message string
	Details map[string]string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
