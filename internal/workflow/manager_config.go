package workflow

import "seen/internal/queue"

// ConfigureStages registers the concrete stage handlers the workflow will run.
// A nil handler leaves its stage unregistered; jobs waiting on that stage stay
// queued until a manager with the handler picks them up.
func (m *Manager) ConfigureStages(set StageSet) {
	intake := &laneState{kind: laneIntake, name: string(laneIntake)}
	redaction := &laneState{kind: laneRedaction, name: string(laneRedaction)}

	if set.Normalizer != nil {
		intake.stages = append(intake.stages, pipelineStage{
			name:             "normalizer",
			handler:          set.Normalizer,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusNormalizing,
			doneStatus:       queue.StatusNormalized,
		})
	}
	if set.Sampler != nil {
		intake.stages = append(intake.stages, pipelineStage{
			name:             "sampler",
			handler:          set.Sampler,
			startStatus:      queue.StatusNormalized,
			processingStatus: queue.StatusSampling,
			doneStatus:       queue.StatusSampled,
		})
	}
	if set.Redactor != nil {
		redaction.stages = append(redaction.stages, pipelineStage{
			name:             "redactor",
			handler:          set.Redactor,
			startStatus:      queue.StatusAnnotated,
			processingStatus: queue.StatusRedacting,
			doneStatus:       queue.StatusCompleted,
		})
	}

	lanes := make(map[laneKind]*laneState)
	order := make([]laneKind, 0, 2)
	for _, lane := range []*laneState{intake, redaction} {
		if len(lane.stages) == 0 {
			continue
		}
		lane.finalize()
		lanes[lane.kind] = lane
		order = append(order, lane.kind)
	}

	m.mu.Lock()
	m.lanes = lanes
	m.laneOrder = order
	m.mu.Unlock()
}
