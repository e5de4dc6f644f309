package plan

import "time"

type Day struct {
	ID          int    `json:"id"`
	WeekID      int    `json:"weekId"`
	DayOfWeek   int    `json:"dayOfWeek"` // 1 = Monday .. 7 = Sunday
	SessionType string `json:"sessionType"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

type Week struct {
	ID     int    `json:"id"`
	PlanID int    `json:"planId"`
	Index  int    `json:"index"` // 1-based position within the plan
	Focus  string `json:"focus"`
	Days   []Day  `json:"days"`
}

type Plan struct {
	ID        int        `json:"id"`
	AthleteID int        `json:"athleteId"`
	Name      string     `json:"name"`
	RaceDate  *time.Time `json:"raceDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	Weeks     []Week     `json:"weeks"`
}

// Draft is an unpersisted plan skeleton, the output of free-text
// extraction. The client reviews it and submits it as a new plan.
type Draft struct {
	Name     string      `json:"name"`
	RaceDate string      `json:"raceDate,omitempty"`
	Weeks    []DraftWeek `json:"weeks"`
}

type DraftWeek struct {
	Index int        `json:"index"`
	Focus string     `json:"focus"`
	Days  []DraftDay `json:"days"`
}

type DraftDay struct {
	DayOfWeek   int    `json:"dayOfWeek"`
	SessionType string `json:"sessionType"`
	Description string `json:"description"`
}
