package paginate

// Button is an actionable control attached to an item or to the page as
// a whole. CustomID carries the encoded action token.
type Button struct {
	CustomID string
	Label    string
	Danger   bool
	Disabled bool
}

// Item is one rendered entry in a list view.
type Item struct {
	Title   string
	Body    string
	Buttons []Button
}

// Controls are the prev/next pagination buttons. A view model for an
// empty or single-page result carries no Controls at all.
type Controls struct {
	Prev Button
	Next Button
}

// ViewModel is the complete, renderer-agnostic description of one drawn
// surface state.
type ViewModel struct {
	Summary   string
	Items     []Item
	Controls  *Controls
	Buttons   []Button
	Empty     bool
	Ephemeral bool
	Disabled  bool
}

// BuildViewModel assembles a view model from a summary line, the items
// of the current window, and optional pagination controls. It is pure:
// the output depends only on the inputs.
func BuildViewModel(summary string, items []Item, controls *Controls) ViewModel {
	vm := ViewModel{
		Summary: summary,
		Items:   items,
	}
	if len(items) == 0 {
		vm.Empty = true
		return vm
	}
	vm.Controls = controls
	return vm
}

// PageControls builds prev/next controls for a window, disabling the
// edges. It returns nil when the collection fits on a single page, so
// callers can pass the result straight to BuildViewModel.
func PageControls(w Window, prevCustomID, nextCustomID string) *Controls {
	if w.TotalPages <= 1 {
		return nil
	}
	return &Controls{
		Prev: Button{CustomID: prevCustomID, Label: "Previous", Disabled: w.Page <= 1},
		Next: Button{CustomID: nextCustomID, Label: "Next", Disabled: w.Page >= w.TotalPages},
	}
}

// DisabledCopy returns a copy of the view model with every control
// disabled, used when a collector expires and the surface is left in a
// terminal state.
func DisabledCopy(vm ViewModel) ViewModel {
	out := vm
	out.Disabled = true
	out.Controls = nil
	out.Buttons = disableButtons(vm.Buttons)
	out.Items = make([]Item, len(vm.Items))
	for i, it := range vm.Items {
		out.Items[i] = Item{Title: it.Title, Body: it.Body, Buttons: disableButtons(it.Buttons)}
	}
	return out
}

func disableButtons(in []Button) []Button {
	if in == nil {
		return nil
	}
	out := make([]Button, len(in))
	for i, b := range in {
		b.Disabled = true
		out[i] = b
	}
	return out
}
