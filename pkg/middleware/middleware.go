// Package middleware provides the HTTP middleware shared by the view and proxy
// modules: request logging, panic recovery, and CORS.
package middleware

import "net/http"

// Func wraps an http.Handler.
type Func = func(http.Handler) http.Handler

// Stack is an ordered middleware list. The first entry runs outermost.
type Stack []Func

// Use appends fns to the stack.
func (s *Stack) Use(fns ...Func) {
	*s = append(*s, fns...)
}

// Apply wraps handler with every entry of s.
func (s Stack) Apply(handler http.Handler) http.Handler {
	for i := len(s) - 1; i >= 0; i-- {
		handler = s[i](handler)
	}
	return handler
}
