// SPDX-License-Identifier: MPL-2.0

package engine

import "github.com/rigup/rigup/pkg/playbook"

type (
	// Reporter receives progress as steps run.
	Reporter interface {
		StepStarted(step *playbook.Step)
		StepFinished(result StepResult)
	}

	// NopReporter discards progress.
	NopReporter struct{}
)

// StepStarted implements Reporter.
func (NopReporter) StepStarted(*playbook.Step) {}

// StepFinished implements Reporter.
func (NopReporter) StepFinished(StepResult) {}
