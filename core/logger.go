package core

// Logger is any leveled logging service. Implementations may ship records to
// an external aggregator in addition to the local stream; args carry
// structured context such as wrapped errors or the acting user.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
