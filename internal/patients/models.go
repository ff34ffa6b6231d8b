package patients

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the minimal registry record the front desk keeps
type Patient struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"type:varchar(200);not null;index"`
	Phone     *string   `json:"phone,omitempty" gorm:"type:varchar(32);index"`
	Email     *string   `json:"email,omitempty" gorm:"type:varchar(255);index"`
	Age       *int      `json:"age,omitempty"`
	Gender    *string   `json:"gender,omitempty" gorm:"type:varchar(20)"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// DisplayName is the name shown on the public screen: first name and last initial
func (p *Patient) DisplayName() string {
	return displayName(p.Name)
}

// MaxSearchResults caps patient search responses
const MaxSearchResults = 20
