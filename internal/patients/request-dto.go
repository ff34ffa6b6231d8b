package patients

type CreatePatientRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=200"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Age     int    `json:"age,omitempty" validate:"omitempty,min=1,max=150"`
	Gender  string `json:"gender,omitempty" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	Address string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// UpdatePatientRequest carries a partial update; nil fields are left alone
type UpdatePatientRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Age     *int    `json:"age,omitempty" validate:"omitempty,min=1,max=150"`
	Gender  *string `json:"gender,omitempty" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}
