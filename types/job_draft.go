package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/graphboard/graphboard/custom_errors"
)

var (
	ErrTaskIdentifierRequired = errors.New("job draft: task identifier is required")
	ErrJobKeyRequired         = errors.New("job draft: job key mode needs a job key")
)

// Validate checks the draft before it is sent. The server still has the last
// word, this only catches what is obviously wrong.
func (d JobDraft) Validate() error {
	validationErrs := &custom_errors.ValidationError{}
	if strings.TrimSpace(d.TaskIdentifier) == "" {
		validationErrs.Add(ErrTaskIdentifierRequired)
	}
	if d.MaxAttempts != nil && *d.MaxAttempts < 1 {
		validationErrs.Add(fmt.Errorf("job draft: max attempts must be positive, got %d", *d.MaxAttempts))
	}
	if d.JobKeyMode != nil {
		if !d.JobKeyMode.IsValid() {
			validationErrs.Add(fmt.Errorf("job draft: unknown job key mode %q", *d.JobKeyMode))
		}
		if d.JobKey == nil || *d.JobKey == "" {
			validationErrs.Add(ErrJobKeyRequired)
		}
	}
	return validationErrs.ErrOrNil()
}
