package quizlic

import "log"

var verboseMode bool

// SetVerbose toggles debug logging for the whole package.
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// VerboseLog logs through the standard logger when verbose mode is on.
func VerboseLog(format string, v ...interface{}) {
	if verboseMode {
		log.Printf(format, v...)
	}
}
