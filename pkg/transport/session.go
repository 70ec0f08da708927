// Copyright 2025 Alexander Kappner.

package transport

import "time"

// EndpointSession is an immutable-with-update record of what is known about
// one appliance endpoint: the route segment under which it answers and the
// last time it was successfully reached. Earlier designs threaded this as
// mutable state hung off a long-lived client object (a lazily-populated
// device_route field updated in place after every call); here a session is a
// value; every update returns a new one, and nothing shares a pointer to it.
type EndpointSession struct {
	Host       string
	Route      string
	LastTouch  time.Time
	lastStatus int
}

// NewEndpointSession starts a session for host with no known route yet.
func NewEndpointSession(host string) EndpointSession {
	return EndpointSession{Host: host}
}

// WithRoute returns a copy of the session bound to route.
func (s EndpointSession) WithRoute(route string) EndpointSession {
	s.Route = route
	return s
}

// Touch returns a copy of the session recording a successful exchange at now
// with the given response status.
func (s EndpointSession) Touch(now time.Time, status int) EndpointSession {
	s.LastTouch = now
	s.lastStatus = status
	return s
}

// Stale reports whether the session has gone silent for longer than max,
// or has never been touched.
func (s EndpointSession) Stale(now time.Time, max time.Duration) bool {
	if s.LastTouch.IsZero() {
		return true
	}
	return now.Sub(s.LastTouch) > max
}

// LastStatus is the HTTP status code of the most recent successful exchange,
// or zero if the session has never been touched.
func (s EndpointSession) LastStatus() int {
	return s.lastStatus
}
