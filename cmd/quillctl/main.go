// Command quillctl is a terminal client for a quillpress server. The session
// is kept under $QUILL_HOME so it survives between invocations.
package main

import (
	"os"

	"github.com/quillpress/quillpress/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
