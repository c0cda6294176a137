package model

import "time"

// Stages is the fixed pipeline shown in the status strip while a
// response is in flight. Backend stage events name one of these;
// anything it doesn't recognize resolves to the first stage.
var Stages = []string{"listen", "remember", "evolve", "render"}

// stageDelays[i] is the wait before auto-advancing from stage i to
// i+1 when the backend reports no explicit stage. Later transitions
// are slower since long waits usually mean the model is still working.
var stageDelays = []time.Duration{
	800 * time.Millisecond,
	1500 * time.Millisecond,
	2500 * time.Millisecond,
}

// ResolveStage maps a backend-reported stage name to its index in
// Stages. Unknown or empty names resolve to 0. Never fails.
func ResolveStage(name string) int {
	for i, stage := range Stages {
		if stage == name {
			return i
		}
	}
	return 0
}

// StageDelay returns the auto-advance delay out of the given stage
// index, clamped to the last defined transition.
func StageDelay(index int) time.Duration {
	if index < 0 {
		index = 0
	}
	if index >= len(stageDelays) {
		index = len(stageDelays) - 1
	}
	return stageDelays[index]
}

// LastStage is the final auto-advance position. The timer stops here;
// only an explicit backend event or response completion moves past it.
func LastStage() int {
	return len(Stages) - 1
}
