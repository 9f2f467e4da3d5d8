// Package readiness waits for a freshly spawned worker's command socket to
// become usable.
//
// Two levels of readiness exist. [Waiter.WaitForEndpoint] answers "does the
// socket file exist yet" and is cheap but can be fooled by the remains of a
// crashed worker. [Waiter.WaitForConnection] answers "is something
// accepting connections there" by dialing and closing on every probe, which
// is what the orchestrator uses before opening a channel.
//
// Both suspend between fixed-interval polls rather than spinning, compose
// with caller contexts, and keep their answer within tens of milliseconds
// of the actual readiness moment or deadline.
package readiness
