package custom_errors

import "strings"

// ValidationError collects every problem found while checking a job draft or a
// configuration, so they can be reported together. errors.Is and errors.As
// look through it at each collected error.
type ValidationError struct {
	Errors []error `json:"errors"`
}

// Add records err. nil is ignored.
func (c *ValidationError) Add(err error) {
	if err != nil {
		c.Errors = append(c.Errors, err)
	}
}

func (c *ValidationError) HasError() bool {
	return len(c.Errors) > 0
}

// ErrOrNil returns c when something was recorded, nil otherwise.
func (c *ValidationError) ErrOrNil() error {
	if !c.HasError() {
		return nil
	}
	return c
}

func (c *ValidationError) Error() string {
	messages := make([]string, len(c.Errors))
	for i, err := range c.Errors {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

func (c *ValidationError) Unwrap() []error {
	return c.Errors
}
