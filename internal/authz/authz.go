// Package authz centralizes who may do what with reviews. Every rule takes the
// caller, the action and the resource and returns a decision with a reason,
// so handlers and services never duplicate ownership conditionals.
package authz

import "github.com/YusovID/addon-reviews/internal/domain"

type Action string

const (
	ActionCreate      Action = "create"
	ActionReply       Action = "reply"
	ActionEdit        Action = "edit"
	ActionDelete      Action = "delete"
	ActionHardDelete  Action = "hard_delete"
	ActionUndelete    Action = "undelete"
	ActionFlag        Action = "flag"
	ActionViewAddon   Action = "view_addon"
	ActionViewDeleted Action = "view_deleted"
	ActionViewIP      Action = "view_ip"
)

// Resource describes what the action targets. Review may be nil for
// add-on level actions.
type Resource struct {
	Addon         *domain.Addon
	Review        *domain.Review
	IsAddonAuthor bool
}

type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Authorize evaluates a single action. Authentication is checked by the caller
// of Authorize; anonymous callers are denied every write action here as well.
func Authorize(caller domain.Caller, action Action, res Resource) Decision {
	switch action {
	case ActionViewAddon:
		return canViewAddon(caller, res)
	case ActionViewDeleted:
		if caller.Has(domain.PermAddonsEdit) {
			return allow()
		}

		return deny("deleted reviews are only visible to add-on editors")
	case ActionViewIP:
		return canViewIP(caller, res)
	}

	if caller.IsAnonymous() {
		return deny("authentication required")
	}

	switch action {
	case ActionCreate:
		return canCreate(res)
	case ActionReply:
		return canReply(caller, res)
	case ActionEdit:
		return canEdit(caller, res)
	case ActionDelete:
		return canDelete(caller, res)
	case ActionHardDelete, ActionUndelete:
		if caller.Has(domain.PermAddonsEdit) {
			return allow()
		}

		return deny("requires Addons:Edit")
	case ActionFlag:
		return canFlag(caller, res)
	}

	return deny("unknown action")
}

func canViewAddon(caller domain.Caller, res Resource) Decision {
	if res.Addon == nil {
		return deny("no add-on")
	}

	if caller.Has(domain.PermAddonsEdit) || res.IsAddonAuthor {
		return allow()
	}

	if res.Addon.Deleted || !res.Addon.IsListed {
		return deny("add-on is not listed")
	}

	return allow()
}

func canViewIP(caller domain.Caller, res Resource) Decision {
	if res.Review == nil {
		return deny("no review")
	}

	if caller.Has(domain.PermAddonsEdit) {
		return allow()
	}

	if !caller.IsAnonymous() && res.Review.UserID == caller.UserID {
		return allow()
	}

	return deny("only the author or an editor can see the ip address")
}

func canCreate(res Resource) Decision {
	if res.Addon == nil || !res.Addon.IsPublic() {
		return deny("add-on is not public")
	}

	if res.IsAddonAuthor {
		return deny("add-on authors can not review their own add-on")
	}

	return allow()
}

func canReply(caller domain.Caller, res Resource) Decision {
	if res.Addon == nil || res.Addon.IsDisabled() || res.Addon.Deleted {
		return deny("add-on is disabled")
	}

	if res.IsAddonAuthor || caller.Has(domain.PermAddonsEdit) {
		return allow()
	}

	return deny("only add-on authors can reply to reviews")
}

func canEdit(caller domain.Caller, res Resource) Decision {
	if res.Review == nil {
		return deny("no review")
	}

	if res.Review.UserID == caller.UserID || caller.Has(domain.PermAddonsEdit) {
		return allow()
	}

	return deny("only the author or an add-on editor can edit a review")
}

func canDelete(caller domain.Caller, res Resource) Decision {
	if res.Review == nil {
		return deny("no review")
	}

	if res.Review.UserID == caller.UserID || caller.Has(domain.PermAddonsEdit) {
		return allow()
	}

	if caller.Has(domain.PermAddonsReview) {
		if res.IsAddonAuthor {
			return deny("reviewers can not moderate reviews of their own add-on")
		}

		return allow()
	}

	return deny("only the author or a moderator can delete a review")
}

func canFlag(caller domain.Caller, res Resource) Decision {
	if res.Review == nil {
		return deny("no review")
	}

	if res.Addon == nil || res.Addon.Deleted || !res.Addon.IsListed {
		return deny("add-on is not accessible")
	}

	if res.Review.UserID == caller.UserID {
		return deny("you can not flag your own review")
	}

	return allow()
}
