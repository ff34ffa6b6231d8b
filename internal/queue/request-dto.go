package queue

type RegisterEntryRequest struct {
	PatientID string `json:"patient_id" validate:"required,uuid"`
}

type ListEntriesQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=WAITING IN_PROGRESS COMPLETED CANCELLED"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=1000"`
}
