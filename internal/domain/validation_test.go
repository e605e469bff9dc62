package domain

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() ProductInput {
	return ProductInput{
		Name:     strPtr("Laptop"),
		Price:    floatPtr(1200),
		Category: strPtr("electronics"),
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var de *Error
	require.True(t, errors.As(err, &de), "expected a domain error, got %v", err)
	require.Equal(t, KindValidation, de.Kind)

	fields := make(map[string]string, len(de.Fields))
	for _, f := range de.Fields {
		fields[f.Field] = f.Message
	}
	return fields
}

func TestValidateInput_Valid(t *testing.T) {
	assert.NoError(t, ValidateInput(validInput()))
}

func TestValidateInput_MissingFields(t *testing.T) {
	err := ValidateInput(ProductInput{})

	fields := fieldsOf(t, err)
	assert.Equal(t, map[string]string{
		"name":     "this field is required",
		"price":    "this field is required",
		"category": "this field is required",
	}, fields)
	assert.Equal(t, "validation failed", err.(*Error).Message)
}

func TestValidateInput_EmptyStrings(t *testing.T) {
	in := validInput()
	in.Name = strPtr("")

	err := ValidateInput(in)

	assert.Equal(t, map[string]string{"name": "must not be empty"}, fieldsOf(t, err))
	assert.Equal(t, "name: must not be empty", err.(*Error).Message)
}

func TestProperty_NonPositivePricesAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("create and update reject price <= 0", prop.ForAll(
		func(price float64) bool {
			in := validInput()
			in.Price = floatPtr(price)

			createErr := ValidateInput(in)
			updateErr := ValidatePatch(ProductPatch{Price: floatPtr(price)})

			return KindOf(createErr) == KindValidation &&
				KindOf(updateErr) == KindValidation &&
				createErr.Error() == "price: price must be a positive number"
		},
		gen.Float64Range(-1e6, 0),
	))

	properties.Property("positive prices pass", prop.ForAll(
		func(price float64) bool {
			in := validInput()
			in.Price = floatPtr(price)
			return ValidateInput(in) == nil && ValidatePatch(ProductPatch{Price: floatPtr(price)}) == nil
		},
		gen.Float64Range(0.0001, 1e6),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestValidatePatch_OnlySuppliedFieldsAreChecked(t *testing.T) {
	assert.NoError(t, ValidatePatch(ProductPatch{}))
	assert.NoError(t, ValidatePatch(ProductPatch{Description: strPtr("")}))
	assert.NoError(t, ValidatePatch(ProductPatch{InStock: boolPtrOf(false)}))

	err := ValidatePatch(ProductPatch{Category: strPtr("")})
	assert.Equal(t, map[string]string{"category": "must not be empty"}, fieldsOf(t, err))
}
