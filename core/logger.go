package core

// Logger is the logging contract shared by every component.
// args may contain errors, maps of extra data, or the user the log line is about.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// LogUser identifies the authenticated user a log line relates to.
type LogUser struct {
	ID       int
	Username string
	Email    string
}
