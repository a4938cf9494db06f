package loader

import (
	"time"
)

// State is the position of a Loader in its pass.
type State int

const (
	Idle State = iota
	Discovering
	Selecting
	Binding
	Executing
	Registering
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Discovering:
		return "discovering"
	case Selecting:
		return "selecting"
	case Binding:
		return "binding"
	case Executing:
		return "executing"
	case Registering:
		return "registering"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Status is the result of loading one resource.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened to one resource.
type Outcome struct {
	Resource  string `json:"resource"`
	Extension string `json:"extension"`
	Backend   string `json:"backend,omitempty"`
	Status    Status `json:"status"`
	// Err is the skip reason or failure cause.
	Err    error  `json:"-"`
	Reason string `json:"reason,omitempty"`
	// Routes lists the IDs of the routes the resource created.
	Routes   []string      `json:"routes,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report aggregates the outcomes of one pass.
type Report struct {
	PassID    string        `json:"pass_id"`
	Locations []string      `json:"locations"`
	Outcomes  []Outcome     `json:"outcomes"`
	Succeeded int           `json:"succeeded"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration"`
	// Err is set when discovery failed and no resource was processed.
	Err    error  `json:"-"`
	Reason string `json:"reason,omitempty"`
}

// OK reports whether discovery succeeded and no resource failed.
func (r *Report) OK() bool {
	return r.Err == nil && r.Failed == 0
}

func (r *Report) add(o Outcome) {
	if o.Err != nil {
		o.Reason = o.Err.Error()
	}
	switch o.Status {
	case StatusSuccess:
		r.Succeeded++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, o)
}

func (r *Report) fail(err error) {
	r.Err = err
	r.Reason = err.Error()
}
