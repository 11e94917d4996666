// Package provisioning simulates writing a Windows 11 image to a drive.
//
// Nothing touches real hardware. A run is a progress counter that a
// scheduled task advances by one percent per tick, with the stage derived
// from the percentage:
//
//	 0%  Preparing
//	 5%  Formatting
//	25%  Copying
//	90%  Finalizing
//	100% Completed
//
// # Lifecycle
//
//	Idle ──Start──▶ Preparing ─▶ Formatting ─▶ Copying ─▶ Finalizing ─▶ Completed
//	  ▲                  └──────────── Fail ──────────────────┘          │
//	  │                                 ▼                                  │
//	  └──────────── Restart ─────────  Error ◀─────────────────────────────┘
//
// Start needs a source image and an accepted confirmation. Restart is
// refused with ErrRunInProgress while a run is active. Close stops the tick
// task and freezes the state.
//
// # Observing Progress
//
// Subscribe registers a callback that receives an Event for every tick and
// every stage change. Callbacks run outside the simulator lock.
package provisioning
