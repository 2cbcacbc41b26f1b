package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Department tags the staff queue a ticket is routed to.
type Department string

const (
	DepartmentStaff          Department = "staff"
	DepartmentProvost        Department = "provost"
	DepartmentDSW            Department = "dsw"
	DepartmentExamController Department = "exam_controller"
)

// Departments lists the routable departments.
var Departments = []Department{DepartmentStaff, DepartmentProvost, DepartmentDSW, DepartmentExamController}

// Priority of a complaint.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Complaint categories and residence halls accepted on submission.
var (
	ComplaintCategories = []string{"infrastructure", "maintenance", "food", "security", "other"}
	Halls               = []string{
		"aftab", "ambedkar", "hadi-hasan", "mohsinul-mulk", "mohd-habib", "sir-syed-north",
		"sir-syed-south", "viqarul-mulk", "abdullah", "bibi-fatima", "nrsc",
	}
	ApplicationTypes = []string{"leave", "hostel", "scholarship", "certificate", "examination", "other"}
)

// Display id prefixes.
const (
	ComplaintPrefix   = "C"
	ApplicationPrefix = "A"
)

// ErrInvalidDisplayID is returned when a display id cannot be parsed.
var ErrInvalidDisplayID = errors.New("invalid display id")

// FormatDisplayID renders prefix followed by the key zero-padded to three digits.
// Keys of 1000 and above simply render wider.
func FormatDisplayID(prefix string, id uint) string {
	return fmt.Sprintf("%s%03d", prefix, id)
}

// ParseDisplayID strips one expected leading prefix letter (either case) and
// parses the remainder as a positive base-10 integer. A bare integer is accepted.
func ParseDisplayID(prefix, raw string) (uint, error) {
	value := strings.TrimSpace(raw)
	if len(value) > 0 && strings.EqualFold(value[:1], prefix) {
		value = value[1:]
	}
	if value == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDisplayID, raw)
	}

	id, err := strconv.ParseUint(value, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDisplayID, raw)
	}
	return uint(id), nil
}

var titleCaser = cases.Title(language.Und)

// Humanize renders stored codes for display: hyphens and underscores become
// spaces and every word is title-cased ("hadi-hasan" -> "Hadi Hasan").
func Humanize(code string) string {
	if code == "" {
		return ""
	}
	spaced := strings.NewReplacer("-", " ", "_", " ").Replace(code)
	return titleCaser.String(spaced)
}
