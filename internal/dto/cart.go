package dto

import "time"

// AddToCartRequest stages a schedule slot in the caller's cart.
type AddToCartRequest struct {
	ScheduleSlotID string `json:"schedule_slot_id" validate:"required"`
}

// CartItemView is a cart item with denormalised section, time and room text.
type CartItemView struct {
	ID             string    `json:"id"`
	ScheduleSlotID string    `json:"schedule_slot_id"`
	OfferingID     string    `json:"offering_id,omitempty"`
	CourseCode     string    `json:"course_code,omitempty"`
	CourseName     string    `json:"course_name,omitempty"`
	Section        string    `json:"section,omitempty"`
	Schedule       string    `json:"schedule,omitempty"`
	Room           string    `json:"room,omitempty"`
	Instructor     string    `json:"instructor,omitempty"`
	AddedAt        time.Time `json:"added_at"`
}

// CartView lists the caller's staged selections.
type CartView struct {
	CartID string         `json:"cart_id,omitempty"`
	Items  []CartItemView `json:"items"`
}
