// Trafficpulse - Real-Time Traffic Event Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trafficpulse

package scheduler

import (
	"errors"
	"fmt"
)

// ErrUnknownTask is returned for a task name that is not registered.
var ErrUnknownTask = errors.New("scheduler: unknown task")

// TaskStatus describes one task for operators.
type TaskStatus struct {
	Name     string `json:"name"`
	Interval string `json:"interval"`
	Paused   bool   `json:"paused"`
	Runs     int64  `json:"runs"`
	Failures int64  `json:"failures"`
}

// Controls pauses and resumes registered tasks by name at runtime.
type Controls struct {
	tasks []*PeriodicTask
}

// NewControls registers tasks in the given order.
func NewControls(tasks ...*PeriodicTask) *Controls {
	return &Controls{tasks: tasks}
}

// Status returns the current state of t.
func (t *PeriodicTask) Status() TaskStatus {
	return TaskStatus{
		Name:     t.name,
		Interval: t.interval.String(),
		Paused:   t.Paused(),
		Runs:     t.Runs(),
		Failures: t.Failures(),
	}
}

// List returns every task status in registration order.
func (c *Controls) List() []TaskStatus {
	out := make([]TaskStatus, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, t.Status())
	}
	return out
}

// Pause pauses the named task.
func (c *Controls) Pause(name string) (TaskStatus, error) {
	t, err := c.find(name)
	if err != nil {
		return TaskStatus{}, err
	}
	t.Pause()
	return t.Status(), nil
}

// Resume resumes the named task.
func (c *Controls) Resume(name string) (TaskStatus, error) {
	t, err := c.find(name)
	if err != nil {
		return TaskStatus{}, err
	}
	t.Resume()
	return t.Status(), nil
}

func (c *Controls) find(name string) (*PeriodicTask, error) {
	for _, t := range c.tasks {
		if t.name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
}
