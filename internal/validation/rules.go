package validation

import (
	"errors"
	"maps"
	"slices"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-polyglot/internal/domain"
)

// FromOzzo converts ozzo-validation field errors into a *domain.ValidationError.
// prefix is prepended to every field name ("translations" yields
// "translations.title"). Internal rule errors are returned unchanged.
func FromOzzo(err error, prefix string) error {
	if err == nil {
		return nil
	}
	var internal ozzo.InternalError
	if errors.As(err, &internal) {
		return err
	}
	var fields ozzo.Errors
	if !errors.As(err, &fields) {
		return (&domain.ValidationError{}).Add(orRoot(prefix), err.Error())
	}
	verr := &domain.ValidationError{}
	collectOzzo(verr, prefix, fields)
	return verr.OrNil()
}

func collectOzzo(verr *domain.ValidationError, prefix string, fields ozzo.Errors) {
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		fieldErr := fields[key]
		if fieldErr == nil {
			continue
		}
		name := joinField(prefix, key)
		var nested ozzo.Errors
		if errors.As(fieldErr, &nested) {
			collectOzzo(verr, name, nested)
			continue
		}
		verr.Add(name, fieldErr.Error())
	}
}
