package athlete

import "time"

type Division string

const (
	DivisionOpen   Division = "open"
	DivisionPro    Division = "pro"
	DivisionDouble Division = "doubles"
	DivisionRelay  Division = "relay"
)

func (d Division) Valid() bool {
	switch d {
	case DivisionOpen, DivisionPro, DivisionDouble, DivisionRelay:
		return true
	}
	return false
}

type Phase string

const (
	PhaseBase      Phase = "base"
	PhaseBuild     Phase = "build"
	PhasePeak      Phase = "peak"
	PhaseTaper     Phase = "taper"
	PhaseOffSeason Phase = "off-season"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseBase, PhaseBuild, PhasePeak, PhaseTaper, PhaseOffSeason:
		return true
	}
	return false
}

type Profile struct {
	ID              int        `json:"id"`
	UserID          int        `json:"userId"`
	Division        Division   `json:"division"`
	RaceDate        *time.Time `json:"raceDate,omitempty"`
	GoalTimeSeconds int        `json:"goalTimeSeconds"`
	TrainingPhase   Phase      `json:"trainingPhase"`
	Equipment       []string   `json:"equipment"`
	Injuries        []string   `json:"injuries"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
