package ports

// View identifies a top-level application view. The route guards decide which
// view a navigation lands on; the navigator records where the user currently is.
type View string

const (
	ViewLogin    View = "login"
	ViewHome     View = "home"
	ViewGenerate View = "generate"
	ViewRuns     View = "runs"
	ViewAdmin    View = "admin"
)

// Navigator tracks the current view and performs forced navigation.
type Navigator interface {
	Current() View
	NavigateTo(v View)
}

// Notifier surfaces a one-time user-facing notice outside the normal render flow.
type Notifier interface {
	Notify(message string)
}
