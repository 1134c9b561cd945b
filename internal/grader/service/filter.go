package service

// Filter selects users by optional allow and deny lists. An empty allow
// list means every user is allowed; the deny list always wins.
type Filter struct {
	allow map[string]struct{}
	deny  map[string]struct{}
}

// NewFilter builds a filter from user id lists.
func NewFilter(allow, deny []string) Filter {
	return Filter{allow: toSet(allow), deny: toSet(deny)}
}

// Allows reports whether userID passes the filter.
func (f Filter) Allows(userID string) bool {
	if _, denied := f.deny[userID]; denied {
		return false
	}
	if len(f.allow) == 0 {
		return true
	}
	_, ok := f.allow[userID]
	return ok
}

// Reason explains why userID is filtered out; empty when it is not.
func (f Filter) Reason(userID string) string {
	if _, denied := f.deny[userID]; denied {
		return "excluded"
	}
	if len(f.allow) > 0 {
		if _, ok := f.allow[userID]; !ok {
			return "not included"
		}
	}
	return ""
}

func toSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
