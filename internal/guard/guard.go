// Package guard decides between rendering protected content and
// redirecting to the login surface. Evaluate is a pure function of the
// session status, the bootstrap grace window, and the current path, so
// the decision is trivial to test and to re-run on every state change.
package guard

import (
	"net/url"

	"github.com/openkcm/console-session/internal/session"
)

type Action uint8

const (
	// ActionRender shows the protected content.
	ActionRender Action = iota
	// ActionLoading shows a placeholder while a stored credential is
	// still being validated.
	ActionLoading
	// ActionRedirect navigates to Decision.Target.
	ActionRedirect
)

func (a Action) String() string {
	switch a {
	case ActionLoading:
		return "loading"
	case ActionRedirect:
		return "redirect"
	default:
		return "render"
	}
}

type Input struct {
	Status       session.Status
	GraceElapsed bool
	CurrentPath  string
	LoginSurface string
}

type Decision struct {
	Action Action
	// Target is set for ActionRedirect: the login surface with the
	// current path attached as the post-login return target.
	Target string
}

func Evaluate(in Input) Decision {
	switch {
	case in.Status == session.StatusValidating && !in.GraceElapsed:
		return Decision{Action: ActionLoading}

	case in.Status.Authenticated():
		// a background refresh must not interrupt the UI
		return Decision{Action: ActionRender}

	case in.CurrentPath == in.LoginSurface:
		// already on the login surface; redirecting again would loop
		return Decision{Action: ActionRender}

	default:
		return Decision{
			Action: ActionRedirect,
			Target: redirectTarget(in.LoginSurface, in.CurrentPath),
		}
	}
}

func redirectTarget(surface, current string) string {
	if current == "" {
		return surface
	}

	return surface + "?return_to=" + url.QueryEscape(current)
}
