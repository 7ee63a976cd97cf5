package routes

import (
	"net/http"

	"github.com/JaimeStill/isoone/pkg/middleware"
)

// Mux is the registration surface shared by http.ServeMux and web.Router.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// Group organizes routes under a common prefix. Middleware wraps every route in the
// group and its children, outermost first.
type Group struct {
	Prefix     string
	Middleware middleware.Stack
	Routes     []Route
	Children   []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux Mux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", nil, group)
	}
}

func registerGroup(mux Mux, parentPrefix string, parentMw middleware.Stack, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	stack := append(append(middleware.Stack{}, parentMw...), group.Middleware...)

	for _, route := range group.Routes {
		mux.Handle(route.under(fullPrefix), stack.Apply(route.Handler))
	}
	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, stack, child)
	}
}
