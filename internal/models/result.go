package models

import "time"

// Result is everything one exploration run produces.
type Result struct {
	RunID     string        `json:"run_id"`
	Root      string        `json:"root"`
	Query     string        `json:"query"`
	Tree      *FlareNode    `json:"tree"`
	Table     *Table        `json:"-"`
	Stats     RunStats      `json:"stats"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// RunStats summarizes the size of a run.
type RunStats struct {
	Rows      int `json:"rows"`
	Parents   int `json:"parents"`
	TreeNodes int `json:"tree_nodes"`
	Entities  int `json:"entities"`
	Labels    int `json:"labels"`
}
