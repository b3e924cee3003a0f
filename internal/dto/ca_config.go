package dto

// CASlotRequest sets one slot maximum.
type CASlotRequest struct {
	Value *float64 `json:"value" binding:"required"`
}
