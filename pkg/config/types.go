package config

import "time"

// Config represents the main optimizer configuration
type Config struct {
	LogLevel  string             `yaml:"log_level"`
	LogFormat string             `yaml:"log_format"`
	Oracle    Oracle             `yaml:"oracle"`
	Static    map[string]float64 `yaml:"static,omitempty"`
	Space     []Bound            `yaml:"space"`
	Strategy  Strategy           `yaml:"strategy"`
	Replay    Replay             `yaml:"replay"`
	Journal   Journal            `yaml:"journal"`
	Status    Status             `yaml:"status"`
}

// Oracle describes how the simulation runtime is started or reached
type Oracle struct {
	Kind          string `yaml:"kind"` // plant, remote or func
	Launch        bool   `yaml:"run_exported_model"`
	ModelLocation string `yaml:"exported_model_loc,omitempty"`
	ShowTerminals bool   `yaml:"show_terminals"`
	Verbose       bool   `yaml:"verbose"`
	Address       string `yaml:"address,omitempty"`      // remote only
	DialTimeout   string `yaml:"dial_timeout,omitempty"` // e.g., "5s"
	Objective     string `yaml:"objective"`              // output field read after each run
}

// Bound is one search dimension
type Bound struct {
	Name  string  `yaml:"name"`
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

// Strategy selects and tunes the search backend
type Strategy struct {
	Name        string  `yaml:"name"`
	Seed        int64   `yaml:"seed"`
	InitPoints  int     `yaml:"init_points"`
	Trials      int     `yaml:"trials"`
	Acquisition string  `yaml:"acquisition,omitempty"` // ei, ucb or pi
	Xi          float64 `yaml:"xi,omitempty"`
	Kappa       float64 `yaml:"kappa,omitempty"`
	Gamma       float64 `yaml:"gamma,omitempty"`
	Candidates  int     `yaml:"candidates,omitempty"`
}

// Replay controls the final non-resetting inspection run
type Replay struct {
	Tolerance float64 `yaml:"tolerance"`
	Strict    bool    `yaml:"strict"`
}

// Journal selects where trials are recorded
type Journal struct {
	Driver string `yaml:"driver"` // none, memory, sqlite or postgres
	DSN    string `yaml:"dsn,omitempty"`
}

// Status configures the HTTP status server; an empty Addr disables it
type Status struct {
	Addr string `yaml:"addr,omitempty"`
}

// GetDialTimeout parses the dial timeout, defaulting to 5s
func (o *Oracle) GetDialTimeout() (time.Duration, error) {
	if o.DialTimeout == "" {
		return 5 * time.Second, nil
	}
	return time.ParseDuration(o.DialTimeout)
}
