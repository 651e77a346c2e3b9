package authz

import "fmt"

// Decision is the outcome of a policy check. Reason is a client-safe
// message, only set when the action is denied.
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

// CheckRole allows the action when the caller's role is in the permitted
// set. Used by handlers that declare which roles may invoke them.
func CheckRole(role string, permitted ...string) Decision {
	for _, p := range permitted {
		if role == p {
			return allow()
		}
	}
	return deny("you are not allowed to use this resource")
}

// CheckOwnership allows mutating a resource when the caller owns it or
// holds the admin role. The denial names the caller, as the action and the
// identity both matter when auditing a refusal.
func CheckOwnership(callerID, callerName, callerRole, ownerID, action string) Decision {
	if callerRole == "admin" || callerID == ownerID {
		return allow()
	}
	return deny(fmt.Sprintf("user %s is not allowed to %s", callerName, action))
}
