// Package lifecycle exposes the foreground-and-runnable signal that gates all
// vault I/O performed by the cleanup engine.
//
// A Gate answers the point-in-time question "may storage I/O proceed right
// now" and schedules callbacks for the next transition to active. Long
// operations poll the gate between units of work and abort when it drops;
// they never block waiting for it mid-operation.
package lifecycle
