package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// spinnerReporter renders engine progress as a console spinner. With quiet
// or JSON output it stays silent.
type spinnerReporter struct {
	disabled bool
	spin     *spinner.Spinner
	phase    string
	total    int
	done     int
}

func newSpinnerReporter(disabled bool) *spinnerReporter {
	return &spinnerReporter{disabled: disabled}
}

func (r *spinnerReporter) StartPhase(name string, total int) {
	r.phase = name
	r.total = total
	r.done = 0
	if r.disabled {
		return
	}
	if r.spin == nil {
		r.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		r.spin.Start()
	}
	r.update()
}

func (r *spinnerReporter) Advance() {
	r.done++
	if r.disabled {
		return
	}
	r.update()
}

func (r *spinnerReporter) EndPhase() {
	if r.disabled || r.spin == nil {
		return
	}
	r.update()
}

func (r *spinnerReporter) update() {
	if r.spin == nil {
		return
	}
	if r.total > 0 {
		r.spin.Suffix = fmt.Sprintf(" %s (%d/%d)", r.phase, r.done, r.total)
	} else {
		r.spin.Suffix = fmt.Sprintf(" %s", r.phase)
	}
}

func (r *spinnerReporter) stopAll() {
	if r.spin != nil {
		r.spin.Stop()
		r.spin = nil
	}
}
