package authflow

import (
	"fmt"

	"github.com/DukeRupert/eduauth/internal/gateway"
)

// Phase is the coarse position of a Controller in its lifecycle.
type Phase int

const (
	Idle Phase = iota
	Pending
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Kind identifies the operation a Pending controller is waiting on.
type Kind int

const (
	KindNone Kind = iota
	EmailCredential
	OAuthGoogle
	OAuthGitHub
)

func (k Kind) String() string {
	switch k {
	case EmailCredential:
		return "email"
	case OAuthGoogle:
		return "oauth_google"
	case OAuthGitHub:
		return "oauth_github"
	default:
		return "none"
	}
}

// KindForProvider returns the pending kind for an OAuth provider.
func KindForProvider(p gateway.Provider) Kind {
	switch p {
	case gateway.Google:
		return OAuthGoogle
	case gateway.GitHub:
		return OAuthGitHub
	default:
		return KindNone
	}
}

// Provider returns the OAuth provider of an OAuth kind, or "".
func (k Kind) Provider() gateway.Provider {
	switch k {
	case OAuthGoogle:
		return gateway.Google
	case OAuthGitHub:
		return gateway.GitHub
	default:
		return ""
	}
}

// State is a snapshot of a Controller.
//
// Error holds the message of the last failure. It survives the reset to Idle
// and is cleared by the next Submit or ChooseProvider.
type State struct {
	Phase Phase
	Kind  Kind
	Error string
}

// Pending reports whether an operation is in flight.
func (s State) Pending() bool {
	return s.Phase == Pending
}

// PendingOn reports whether the in-flight operation is of kind k.
func (s State) PendingOn(k Kind) bool {
	return s.Phase == Pending && s.Kind == k
}

func (s State) String() string {
	switch s.Phase {
	case Pending:
		return fmt.Sprintf("pending(%s)", s.Kind)
	case Failed:
		return fmt.Sprintf("failed(%q)", s.Error)
	default:
		return s.Phase.String()
	}
}
