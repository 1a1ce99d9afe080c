package builder

import "errors"

// joinParseErrors aggregates every invariant violation found during a single
// Build call into one error, matching internal/entity/validate.go's
// errors.Join pattern in the teacher repo.
func joinParseErrors(errs []error) error {
	return errors.Join(errs...)
}
