package vtable

import "time"

// RegistrationEvent describes one completed registration.
type RegistrationEvent struct {
	Context   string
	Family    string
	Result    string
	Tag       Tag
	Target    string
	Operation string
	// Override is set when this registration replaced an earlier one for
	// the same tag. Last registration wins; the event makes the overwrite
	// observable.
	Override bool
	// Previous names the replaced operation when Override is set.
	Previous string
	// Default is set when the registration targets the family's own base
	// type, i.e. the fallback slot.
	Default bool
}

// DispatchEvent describes one dispatch attempt, successful or not.
type DispatchEvent struct {
	Context   string
	Family    string
	Result    string
	Tag       Tag
	Operand   string
	Operation string
	// Fallback is set when the call was served by the base default slot
	// rather than a direct registration.
	Fallback bool
	Err      error
	Duration time.Duration
}

// Observer receives registration and dispatch events. Implementations
// must be quick; they run in the caller goroutine.
type Observer interface {
	OnRegister(e RegistrationEvent)
	OnDispatch(e DispatchEvent)
}
