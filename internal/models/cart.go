package models

import "time"

// Cart is a student's staging area before checkout. One cart per student.
type Cart struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CartItem stages one schedule slot. A slot appears at most once per cart.
type CartItem struct {
	ID             string    `db:"id" json:"id"`
	CartID         string    `db:"cart_id" json:"cart_id"`
	ScheduleSlotID string    `db:"schedule_slot_id" json:"schedule_slot_id"`
	AddedAt        time.Time `db:"added_at" json:"added_at"`
}

// CartItemDetail is a cart item resolved against its schedule slot.
type CartItemDetail struct {
	CartItemID string    `db:"cart_item_id" json:"cart_item_id"`
	AddedAt    time.Time `db:"added_at" json:"added_at"`
	ScheduleSlotDetail
}
