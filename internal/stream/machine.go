package stream

import "time"

// The Manager's lifecycle logic is split into pure transition functions over
// machineState so the state machine can be unit-tested without sockets or
// timers. The Manager applies the returned directive: emit events in order,
// then dial or arm the retry timer.

// machineState is the mutable core of a Manager's state machine.
type machineState struct {
	Phase        ConnectionState
	Attempts     uint // consecutive failed attempts; reset on open
	ManualClose  bool // set by Close; suppresses reconnection
	WasReconnect bool // next successful open is a recovery, not a first open
}

// directive lists the side effects a transition requires.
type directive struct {
	Dial    bool          // start a connection attempt
	RetryIn time.Duration // >0: arm the retry timer
	Events  []Event       // emit in order
}

// openSucceeded handles a completed handshake. A recovered open emits
// reconnected instead of open so callers can tell first connects from
// recoveries.
func openSucceeded(st machineState) (machineState, directive) {
	st.Phase = StateOpen
	st.Attempts = 0

	ev := Event{Kind: EventOpen}
	if st.WasReconnect {
		ev = Event{Kind: EventReconnected}
		st.WasReconnect = false
	}
	return st, directive{Events: []Event{ev}}
}

// connectionLost handles handshake failures and post-open drops identically.
// Attempts increments before the delay is computed and before the
// reconnecting event is built.
func connectionLost(st machineState, p ReconnectPolicy, cause error, reason string) (machineState, directive) {
	if st.ManualClose || !p.AutoReconnect || st.Attempts >= p.MaxAttempts {
		st.Phase = StateClosed
		return st, directive{Events: closedEvents(cause, reason)}
	}

	st.Attempts++
	st.WasReconnect = true
	st.Phase = StateReconnecting
	return st, directive{
		RetryIn: p.Delay(st.Attempts),
		Events:  []Event{{Kind: EventReconnecting, Attempt: st.Attempts}},
	}
}

// retryFired handles the backoff timer elapsing. A close that raced the
// timer wins: the attempt is abandoned.
func retryFired(st machineState) (machineState, directive) {
	if st.ManualClose || st.Phase != StateReconnecting {
		return st, directive{}
	}
	st.Phase = StateConnecting
	return st, directive{Dial: true}
}

// reconnectRequested handles an explicit Reconnect call. It only acts from
// closed or closing; anywhere else it is a strict no-op.
func reconnectRequested(st machineState) (machineState, directive) {
	if st.Phase != StateClosed && st.Phase != StateClosing {
		return st, directive{}
	}
	st.Phase = StateConnecting
	st.Attempts = 0
	st.ManualClose = false
	st.WasReconnect = true
	return st, directive{Dial: true}
}

// closedEvents builds the event sequence for a terminal transition to closed.
func closedEvents(cause error, reason string) []Event {
	var evs []Event
	if cause != nil {
		evs = append(evs, Event{Kind: EventError, Err: cause})
	}
	return append(evs, Event{Kind: EventClose, Reason: reason})
}
