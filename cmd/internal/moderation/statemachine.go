package moderation

// transitions lists every legal status change. Published and rejected have
// no outgoing edges, which makes them terminal.
var transitions = map[Status]map[Status]struct{}{
	StatusStaged: {
		StatusPublished: {},
		StatusRejected:  {},
	},
}

// CanTransition reports whether an entry may move from one status to another.
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}
