package database

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/pkg/crypto"
)

// SamplePassword is the password assigned to every generated sample account.
const SamplePassword = "password123"

type sampleUser struct {
	collegeID string
	email     string
	first     string
	last      string
	role      models.Role
}

var sampleStudents = []sampleUser{
	{"STU001", "student1@amu.ac.in", "Ahmed", "Khan", models.RoleStudent},
	{"STU002", "student2@amu.ac.in", "Fatima", "Begum", models.RoleStudent},
	{"STU003", "student3@amu.ac.in", "Mohammed", "Ali", models.RoleStudent},
	{"STU004", "student4@amu.ac.in", "Aisha", "Siddiqui", models.RoleStudent},
	{"STU005", "student5@amu.ac.in", "Rahul", "Sharma", models.RoleStudent},
	{"STU006", "student6@amu.ac.in", "Priya", "Verma", models.RoleStudent},
	{"STU007", "student7@amu.ac.in", "Arjun", "Patel", models.RoleStudent},
	{"STU008", "student8@amu.ac.in", "Zara", "Malik", models.RoleStudent},
	{"STU009", "student9@amu.ac.in", "Vikram", "Singh", models.RoleStudent},
	{"STU010", "student10@amu.ac.in", "Meera", "Gupta", models.RoleStudent},
}

var sampleStaff = []sampleUser{
	{"STF001", "staff@amu.ac.in", "General", "Staff", models.RoleStaff},
	{"PRV001", "provost@amu.ac.in", "Hall", "Provost", models.RoleProvost},
	{"DSW001", "dsw@amu.ac.in", "Student", "Welfare", models.RoleDSW},
	{"EXM001", "exams@amu.ac.in", "Exam", "Controller", models.RoleExamController},
}

type sampleComplaint struct {
	title, description, category string
	department                   models.Department
	hall                         string
	priority                     models.Priority
}

var sampleComplaints = []sampleComplaint{
	{"WiFi connectivity issues in library", "The WiFi connection in the central library is very slow and keeps disconnecting frequently. This is affecting our study sessions.", "infrastructure", models.DepartmentStaff, "nrsc", models.PriorityHigh},
	{"Broken water cooler in cafeteria", "The water cooler in the main cafeteria has been out of order for the past week. Students are facing difficulty getting drinking water.", "maintenance", models.DepartmentStaff, "nrsc", models.PriorityMedium},
	{"Parking space shortage", "There is insufficient parking space for students and faculty vehicles during peak hours. This causes traffic congestion.", "infrastructure", models.DepartmentStaff, "nrsc", models.PriorityMedium},
	{"Lost and found service improvement", "The lost and found service needs better organization and a dedicated space for storing found items.", "other", models.DepartmentStaff, "nrsc", models.PriorityLow},
	{"Campus security concerns", "Street lights in the parking area are not working properly, creating safety concerns during evening hours.", "security", models.DepartmentStaff, "nrsc", models.PriorityHigh},
	{"Room cleaning schedule irregularity", "The room cleaning service in Aftab Hall is not following the regular schedule. Rooms are not cleaned on time.", "maintenance", models.DepartmentProvost, "aftab", models.PriorityMedium},
	{"Mess food quality issues", "The food quality in the mess has deteriorated significantly. Meals are often cold and not properly cooked.", "food", models.DepartmentProvost, "ambedkar", models.PriorityHigh},
	{"Laundry service delays", "The laundry service is taking too long to return clothes. Students are facing inconvenience due to this delay.", "other", models.DepartmentProvost, "hadi-hasan", models.PriorityMedium},
	{"Common room facilities inadequate", "The common room in the hall lacks proper recreational facilities and study spaces for students.", "infrastructure", models.DepartmentProvost, "mohsinul-mulk", models.PriorityLow},
	{"Hall maintenance urgent repairs", "Several electrical outlets in the rooms are not working. This is creating safety hazards and inconvenience.", "maintenance", models.DepartmentProvost, "mohd-habib", models.PriorityUrgent},
	{"Mental health support services", "Students need better access to counseling and mental health support services. Current facilities are inadequate.", "other", models.DepartmentDSW, "sir-syed-north", models.PriorityHigh},
	{"Financial aid application process", "The process for applying for financial aid and scholarships is too complicated and time-consuming.", "other", models.DepartmentDSW, "sir-syed-south", models.PriorityMedium},
	{"Sports facilities improvement", "The sports facilities and equipment need upgrading. Current facilities are not sufficient for all students.", "infrastructure", models.DepartmentDSW, "viqarul-mulk", models.PriorityMedium},
	{"Student grievance redressal system", "The current system for addressing student grievances is not effective and needs improvement.", "other", models.DepartmentDSW, "abdullah", models.PriorityHigh},
	{"Medical facilities accessibility", "The campus medical center has limited hours and insufficient staff to handle student health needs.", "other", models.DepartmentDSW, "bibi-fatima", models.PriorityUrgent},
	{"Examination hall seating arrangement", "The seating arrangement in examination halls is not proper, causing confusion and discomfort during exams.", "infrastructure", models.DepartmentExamController, "nrsc", models.PriorityHigh},
	{"Online examination platform issues", "The online examination platform frequently crashes and has technical issues during important exams.", "infrastructure", models.DepartmentExamController, "nrsc", models.PriorityUrgent},
	{"Question paper distribution delays", "Question papers are not distributed on time in some examination halls, causing unnecessary stress.", "other", models.DepartmentExamController, "nrsc", models.PriorityHigh},
	{"Examination invigilation problems", "There are not enough invigilators in large examination halls, leading to supervision issues.", "other", models.DepartmentExamController, "nrsc", models.PriorityMedium},
	{"Result declaration delays", "Examination results are declared very late, affecting students' academic planning and career decisions.", "other", models.DepartmentExamController, "nrsc", models.PriorityMedium},
}

// now is swapped in tests.
var now = time.Now

// SampleResult summarises what SeedSamples created.
type SampleResult struct {
	Users      int
	Complaints int
}

// SeedSamples creates demo accounts and one complaint per template, spread
// over the last 30 days with a weighted status mix. Accounts that already
// exist are reused.
func SeedSamples(ctx context.Context, db *gorm.DB, rng *rand.Rand) (SampleResult, error) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(now().UnixNano()), 0))
	}

	hash, err := crypto.HashPassword(SamplePassword)
	if err != nil {
		return SampleResult{}, fmt.Errorf("hash sample password: %w", err)
	}

	var result SampleResult
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		students := make([]models.User, 0, len(sampleStudents))
		for _, sample := range append(append([]sampleUser{}, sampleStudents...), sampleStaff...) {
			user := models.User{
				CollegeID:    sample.collegeID,
				Email:        sample.email,
				PasswordHash: hash,
				FirstName:    sample.first,
				LastName:     sample.last,
				Role:         sample.role,
				IsActive:     true,
				IsVerified:   true,
			}
			var stored models.User
			res := tx.Where(models.User{Email: sample.email}).Attrs(user).FirstOrCreate(&stored)
			if res.Error != nil {
				return fmt.Errorf("seed user %s: %w", sample.collegeID, res.Error)
			}
			if res.RowsAffected > 0 {
				result.Users++
			}
			if stored.Role == models.RoleStudent {
				students = append(students, stored)
			}
		}

		for _, tpl := range sampleComplaints {
			created := now().Add(-time.Duration(rng.IntN(31)) * 24 * time.Hour)
			complaint := models.Complaint{
				StudentID:   students[rng.IntN(len(students))].ID,
				Title:       tpl.title,
				Description: tpl.description,
				Category:    tpl.category,
				Department:  tpl.department,
				Hall:        tpl.hall,
				Priority:    tpl.priority,
				Status:      sampleStatus(rng),
				CreatedAt:   created,
				UpdatedAt:   created.Add(time.Duration(1+rng.IntN(24)) * time.Hour),
			}
			if err := tx.Create(&complaint).Error; err != nil {
				return fmt.Errorf("seed complaint %q: %w", tpl.title, err)
			}
			result.Complaints++
		}
		return nil
	})
	return result, err
}

// 40% pending, 30% in progress, 25% resolved, 5% rejected.
func sampleStatus(rng *rand.Rand) models.ComplaintStatus {
	switch roll := rng.IntN(100); {
	case roll < 40:
		return models.ComplaintPending
	case roll < 70:
		return models.ComplaintInProgress
	case roll < 95:
		return models.ComplaintResolved
	default:
		return models.ComplaintRejected
	}
}
