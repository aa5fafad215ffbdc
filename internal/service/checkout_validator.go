package service

import (
	"context"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type enrollmentHistoryReader interface {
	ListByStudent(ctx context.Context, exec sqlx.QueryerContext, studentID string) ([]models.EnrollmentDetail, error)
}

type meetingReader interface {
	ListMeetings(ctx context.Context, exec sqlx.QueryerContext, offeringIDs []string) ([]models.OfferingMeeting, error)
}

// CheckoutValidator runs the checkout rules over a staged cart. It only reads,
// so the preview and the commit path share it.
type CheckoutValidator struct {
	enrollments enrollmentHistoryReader
	meetings    meetingReader
}

// NewCheckoutValidator constructs the validator.
func NewCheckoutValidator(enrollments enrollmentHistoryReader, meetings meetingReader) *CheckoutValidator {
	return &CheckoutValidator{enrollments: enrollments, meetings: meetings}
}

// Validate applies, in order: reference resolution, seat availability, same
// section, other section of the course, then schedule conflicts. The first
// violated rule is returned. The same-section rule also rejects an offering
// where the student keeps a row that cannot be reactivated, as enrolling would.
func (v *CheckoutValidator) Validate(ctx context.Context, exec sqlx.QueryerContext, studentID string, items []models.CartItemDetail) (*dto.CheckoutValidation, error) {
	if len(items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "cart is empty")
	}
	for _, item := range items {
		if !item.Resolved() {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "invalid schedule slot/section/timeslot")
		}
	}

	offerings := distinctOfferings(items)
	for _, item := range offerings {
		if *item.AvailableSeats <= 0 {
			return nil, appErrors.Clonef(appErrors.ErrConflict, "no available seats in %s section %s", *item.CourseCode, *item.SectionCode)
		}
	}

	existing, err := v.enrollments.ListByStudent(ctx, exec, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load student enrollments")
	}
	var active []models.EnrollmentDetail
	for _, enrollment := range existing {
		if enrollment.Status.IsActive() {
			active = append(active, enrollment)
		}
	}
	for _, item := range offerings {
		for _, enrollment := range existing {
			if enrollment.OfferingID != *item.OfferingID {
				continue
			}
			switch {
			case enrollment.Status.IsActive():
				return nil, appErrors.Clonef(appErrors.ErrConflict, "already enrolled in this section: %s section %s", *item.CourseCode, *item.SectionCode)
			case !enrollment.Status.IsReactivatable():
				return nil, appErrors.Clonef(appErrors.ErrConflict, "already has an enrollment record for %s section %s", *item.CourseCode, *item.SectionCode)
			}
		}
	}
	seenCourse := make(map[string]string, len(offerings))
	for _, item := range offerings {
		for _, enrollment := range active {
			if enrollment.CourseID == *item.CourseID && enrollment.OfferingID != *item.OfferingID {
				return nil, appErrors.Clonef(appErrors.ErrConflict, "already enrolled in another section of %s", *item.CourseName)
			}
		}
		if other, ok := seenCourse[*item.CourseID]; ok && other != *item.OfferingID {
			return nil, appErrors.Clonef(appErrors.ErrConflict, "cart holds more than one section of %s", *item.CourseName)
		}
		seenCourse[*item.CourseID] = *item.OfferingID
	}

	if err := v.checkSchedule(ctx, exec, items, active); err != nil {
		return nil, err
	}

	result := &dto.CheckoutValidation{Valid: true, Items: make([]dto.CheckoutItemResult, 0, len(items))}
	for _, item := range items {
		result.Items = append(result.Items, dto.CheckoutItemResult{
			CartItemID:     item.CartItemID,
			ScheduleSlotID: item.ScheduleSlotID,
			OfferingID:     *item.OfferingID,
			CourseCode:     *item.CourseCode,
			CourseName:     *item.CourseName,
			Section:        *item.SectionCode,
			SeatAvailable:  *item.AvailableSeats > 0,
			AvailableSeats: *item.AvailableSeats,
		})
	}
	for _, item := range offerings {
		result.OfferingIDs = append(result.OfferingIDs, *item.OfferingID)
	}
	sort.Strings(result.OfferingIDs)
	return result, nil
}

func (v *CheckoutValidator) checkSchedule(ctx context.Context, exec sqlx.QueryerContext, items []models.CartItemDetail, active []models.EnrollmentDetail) error {
	if len(active) > 0 {
		ids := make([]string, 0, len(active))
		for _, enrollment := range active {
			ids = append(ids, enrollment.OfferingID)
		}
		meetings, err := v.meetings.ListMeetings(ctx, exec, ids)
		if err != nil {
			return appErrors.Internal(err, "failed to load enrolled meeting times")
		}
		for _, item := range items {
			for _, meeting := range meetings {
				if SlotsOverlap(item.TimeSlot(), meeting.TimeSlot()) {
					return scheduleConflict(*item.CourseName, meeting.CourseName)
				}
			}
		}
	}

	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if *items[i].OfferingID == *items[j].OfferingID {
				continue
			}
			if SlotsOverlap(items[i].TimeSlot(), items[j].TimeSlot()) {
				return scheduleConflict(*items[i].CourseName, *items[j].CourseName)
			}
		}
	}
	return nil
}

func scheduleConflict(courseA, courseB string) error {
	return appErrors.Clonef(appErrors.ErrBadRequest, "schedule conflict between %s and %s", courseA, courseB)
}

// distinctOfferings keeps the first cart item of each offering, in cart order.
func distinctOfferings(items []models.CartItemDetail) []models.CartItemDetail {
	seen := make(map[string]bool, len(items))
	var result []models.CartItemDetail
	for _, item := range items {
		if seen[*item.OfferingID] {
			continue
		}
		seen[*item.OfferingID] = true
		result = append(result, item)
	}
	return result
}
