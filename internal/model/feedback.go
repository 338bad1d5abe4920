package model

import (
	"time"

	"github.com/google/uuid"
)

type Feedback struct {
	ID                 uuid.UUID `json:"id"`
	AppointmentID      uuid.UUID `json:"appointment_id"`
	SubmitterID        uuid.UUID `json:"submitter_id"`
	SubmitterRole      PartyRole `json:"submitter_role"`
	OverallRating      int       `json:"overall_rating"`
	QualityRating      int       `json:"quality_rating"`
	PreparationRating  int       `json:"preparation_rating"`
	WentWell           string    `json:"went_well"`
	CouldImprove       string    `json:"could_improve"`
	InterestedInFuture bool      `json:"interested_in_future"`
	CreatedAt          time.Time `json:"created_at"`
}
