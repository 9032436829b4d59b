package logger

import "sync"

// named holds loggers registered for a component, keyed by component name.
var named sync.Map

// Register makes l the logger that Get returns for component.
func Register(component string, l *Logger) {
	named.Store(component, l)
}

// Get returns the logger registered for component. Unregistered components
// get the global logger tagged with their name; the global logger is looked
// up on every call so components resolved before Init follow it afterwards.
func Get(component string) *Logger {
	if l, ok := named.Load(component); ok {
		return l.(*Logger)
	}
	return GetGlobalLogger().WithComponent(component)
}
