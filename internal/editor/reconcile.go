package editor

// Append adds v to list.
func Append[T any](list []T, v T) []T {
	return append(list, v)
}

// Replace swaps the element with v's id for v. Lists without it are
// returned unchanged.
func Replace[T any](list []T, v T, idOf func(T) int) []T {
	id := idOf(v)
	for i := range list {
		if idOf(list[i]) == id {
			out := make([]T, len(list))
			copy(out, list)
			out[i] = v
			return out
		}
	}
	return list
}

// Remove drops every element with id.
func Remove[T any](list []T, id int, idOf func(T) int) []T {
	out := make([]T, 0, len(list))
	for _, v := range list {
		if idOf(v) != id {
			out = append(out, v)
		}
	}
	return out
}

// Reconcile applies a successful command result to a loaded list of T.
// Results carrying a different entity type leave list unchanged.
func Reconcile[T any](list []T, res *Result, idOf func(T) int) []T {
	if res == nil {
		return list
	}
	switch res.Action {
	case ActionDelete:
		return Remove(list, res.ID, idOf)
	case ActionCreate, ActionUpdate:
		v, ok := res.Entity.(*T)
		if !ok || v == nil {
			return list
		}
		if res.Action == ActionCreate {
			return Append(list, *v)
		}
		return Replace(list, *v, idOf)
	}
	return list
}
