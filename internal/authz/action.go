// Package authz decides, per request, whether the acting identity may
// perform an HTTP verb against a named resource. Decisions resolve a
// codename of the form "{action}_{resource}" against the group permission
// store; a missing group or codename denies (fail closed).
package authz

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Action is the abstract operation derived from an HTTP verb.
type Action string

const (
	ActionView   Action = "view"
	ActionAdd    Action = "add"
	ActionChange Action = "change"
	ActionDelete Action = "delete"
)

// Actions lists every action the capability table can produce.
var Actions = []Action{ActionView, ActionAdd, ActionChange, ActionDelete}

// ErrUnsupportedMethod indicates a route was wired to the gate with a verb
// outside the recognized set. This is a configuration error, not a runtime
// condition.
var ErrUnsupportedMethod = errors.New("authz: unsupported http method")

// ActionForMethod translates an HTTP verb into an action. OPTIONS and HEAD
// are never gated and report ok=false without an error.
func ActionForMethod(method string) (action Action, gated bool, err error) {
	switch method {
	case http.MethodGet:
		return ActionView, true, nil
	case http.MethodPost:
		return ActionAdd, true, nil
	case http.MethodPut, http.MethodPatch:
		return ActionChange, true, nil
	case http.MethodDelete:
		return ActionDelete, true, nil
	case http.MethodOptions, http.MethodHead:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
}

// Codename builds the permission codename for an action on a resource.
func Codename(action Action, resource string) string {
	return string(action) + "_" + strings.ToLower(resource)
}
