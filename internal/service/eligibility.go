package service

import "github.com/noah-isme/lms-go-api/internal/models"

// CanTakeFinal evaluates the final-exam preconditions against a resolved
// grade rule. A nil rule means no gating is configured and the student is
// always eligible. All configured conditions must hold; the video progress
// condition only applies when the rule requires it.
func CanTakeFinal(rule *models.GradeRule, subjectProgress float64, assignmentsSubmitted int, attendanceRate float64) bool {
	if rule == nil {
		return true
	}
	if rule.RequireVideoProgress && subjectProgress < rule.MinVideoProgress {
		return false
	}
	if assignmentsSubmitted < rule.MinAssignments {
		return false
	}
	if attendanceRate < rule.MinAttendanceRate {
		return false
	}
	return true
}
