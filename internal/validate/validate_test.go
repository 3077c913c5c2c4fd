package validate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smallbiznis/bbf-onboarding/internal/validate"
)

func TestEmailFormat(t *testing.T) {
	cases := []struct {
		email string
		kind  validate.Kind
		ok    bool
	}{
		{"jane@acmecorp.com", "", true},
		{"jane+bots@acmecorp.co.uk", "", true},
		{"jane@gmail.com", validate.KindFreeDomain, false},
		{"JANE@GMAIL.COM", validate.KindFreeDomain, false},
		{"sam@me.com", validate.KindFreeDomain, false},
		{"", validate.KindInvalidFormat, false},
		{"jane", validate.KindInvalidFormat, false},
		{"jane@", validate.KindInvalidFormat, false},
		{"@acmecorp.com", validate.KindInvalidFormat, false},
		{"jane@acmecorp", validate.KindInvalidFormat, false},
		{"jane@@acmecorp.com", validate.KindInvalidFormat, false},
		{"jane doe@acmecorp.com", validate.KindInvalidFormat, false},
	}

	for _, tc := range cases {
		kind, ok := validate.Email(tc.email)
		require.Equal(t, tc.ok, ok, "email %q", tc.email)
		require.Equal(t, tc.kind, kind, "email %q", tc.email)
	}
}

func TestRequired(t *testing.T) {
	errs := validate.Required(map[string]string{
		"first_name": "Jane",
		"last_name":  "",
		"website":    "   ",
	})

	require.Len(t, errs, 2)
	require.Equal(t, validate.KindRequired, errs["last_name"])
	require.Equal(t, validate.KindRequired, errs["website"])
	require.NotContains(t, errs, "first_name")
}

func TestKindMessages(t *testing.T) {
	require.Equal(t, "Invalid email format", validate.KindInvalidFormat.Message())
	require.Equal(t, "Please use a business email", validate.KindFreeDomain.Message())
	require.Equal(t, "Required", validate.KindRequired.Message())
}
