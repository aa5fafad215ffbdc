package dto

// CheckoutItemResult reports the validation outcome of one cart item.
type CheckoutItemResult struct {
	CartItemID     string `json:"cart_item_id"`
	ScheduleSlotID string `json:"schedule_slot_id"`
	OfferingID     string `json:"offering_id"`
	CourseCode     string `json:"course_code"`
	CourseName     string `json:"course_name"`
	Section        string `json:"section"`
	SeatAvailable  bool   `json:"seat_available"`
	AvailableSeats int    `json:"available_seats"`
}

// CheckoutValidation is returned when every checkout rule passes.
type CheckoutValidation struct {
	Valid       bool                 `json:"valid"`
	Items       []CheckoutItemResult `json:"items"`
	OfferingIDs []string             `json:"offering_ids"`
}

// CheckoutResult summarises a committed checkout.
type CheckoutResult struct {
	EnrollmentIDs []string `json:"enrollment_ids"`
}
