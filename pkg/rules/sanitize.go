package rules

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// sanitizeValue strips markup from string results so computed values can be
// echoed into HTML safely. Other types pass through unchanged.
func sanitizeValue(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	return textSanitizer().Sanitize(s)
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}
