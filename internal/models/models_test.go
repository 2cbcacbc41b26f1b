package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	require.NoError(t, base.BeforeCreate(nil))
	require.NotEmpty(t, base.ID)

	existing := BaseModel{ID: "fixed"}
	require.NoError(t, existing.BeforeCreate(nil))
	require.Equal(t, "fixed", existing.ID)
}

func TestDisplayIDFormatting(t *testing.T) {
	require.Equal(t, "C001", (&Complaint{ID: 1}).DisplayID())
	require.Equal(t, "A042", (&Application{ID: 42}).DisplayID())
	require.Equal(t, "C999", FormatDisplayID(ComplaintPrefix, 999))
	require.Equal(t, "C1000", FormatDisplayID(ComplaintPrefix, 1000))
	require.Equal(t, "A123456", FormatDisplayID(ApplicationPrefix, 123456))
}

func TestDisplayIDRoundTrip(t *testing.T) {
	keys := []uint{1, 2, 9, 10, 99, 100, 999, 1000, 1001, 65535, 4294967295}
	for _, prefix := range []string{ComplaintPrefix, ApplicationPrefix} {
		for _, k := range keys {
			t.Run(fmt.Sprintf("%s%d", prefix, k), func(t *testing.T) {
				parsed, err := ParseDisplayID(prefix, FormatDisplayID(prefix, k))
				require.NoError(t, err)
				require.Equal(t, k, parsed)
			})
		}
	}
}

func TestParseDisplayIDAcceptsVariants(t *testing.T) {
	for _, raw := range []string{"C007", "c007", "7", " C7 ", "007"} {
		id, err := ParseDisplayID(ComplaintPrefix, raw)
		require.NoError(t, err, raw)
		require.Equal(t, uint(7), id)
	}
}

func TestParseDisplayIDRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "C", "C000", "0", "CC01", "A001x", "C-1", "C+1", "C1.5", "X001"} {
		_, err := ParseDisplayID(ComplaintPrefix, raw)
		require.Error(t, err, raw)
		require.True(t, errors.Is(err, ErrInvalidDisplayID), raw)
	}
}

func TestHumanize(t *testing.T) {
	cases := map[string]string{
		"hadi-hasan":      "Hadi Hasan",
		"exam_controller": "Exam Controller",
		"infrastructure":  "Infrastructure",
		"sir-syed-north":  "Sir Syed North",
		"urgent":          "Urgent",
		"":                "",
	}
	for in, want := range cases {
		require.Equal(t, want, Humanize(in), in)
	}
}

func TestEnumerationValidity(t *testing.T) {
	require.True(t, RoleExamController.Valid())
	require.False(t, Role("admin").Valid())
	require.True(t, ComplaintInProgress.Valid())
	require.False(t, ComplaintStatus("closed").Valid())
	require.True(t, ApplicationApproved.Valid())
	require.False(t, ApplicationStatus("in-progress").Valid())
}

func TestUserFullName(t *testing.T) {
	require.Equal(t, "Student 1", (&User{FirstName: "Student", LastName: "1"}).FullName())
	require.Equal(t, "STU001", (&User{CollegeID: "STU001"}).FullName())
	require.Equal(t, "", (*User)(nil).FullName())
}
