package domain

import "time"

// Person is a Float person record.
type Person struct {
	ID   int64
	Name string
}

// FloatProject is a project owned by Float, the source of truth for the
// project taxonomy.
type FloatProject struct {
	ID       int64
	Name     string
	Color    string // hex without '#', empty when Float has no color set
	Active   bool
	ClientID *int64
}

// FloatPhase is a sub-division of a Float project.
type FloatPhase struct {
	ID        int64
	ProjectID int64
	Name      string
	Color     string
	Active    bool
}

// FloatTask is a scheduled Float task. Hours is the planned amount per day.
type FloatTask struct {
	TaskID        int64
	TaskMetaID    int64
	ProjectID     int64
	PhaseID       int64
	Name          string
	Hours         float64
	StartDate     string // YYYY-MM-DD
	EndDate       string
	RepeatEndDate string // empty when the task does not repeat
}

// LoggedTime is a logged-time record in Float. Date is YYYY-MM-DD.
type LoggedTime struct {
	ID         string // logged_time_id, assigned by Float
	Date       string
	Hours      float64
	Notes      string
	PersonID   int64
	ProjectID  int64
	PhaseID    *int64
	TaskID     *int64
	TaskMetaID *int64
	TaskName   string
}

// TaskFilter narrows a Float task listing. Zero values mean "any".
type TaskFilter struct {
	PersonID  int64
	ProjectID int64
	From      time.Time
	To        time.Time
}
