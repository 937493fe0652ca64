// Command email-templates writes the branded auth email templates to
// ./email-templates for upload to the backend's email settings.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/arosenfeld2003/lockstep/internal/email"
)

func main() {
	os.Exit(run(email.DefaultDir, os.Stdout, os.Stderr))
}

func run(dir string, stdout, stderr io.Writer) int {
	paths, err := email.WriteAll(dir)
	if err != nil {
		fmt.Fprintf(stderr, "email-templates: %v\n", err)
		return 1
	}
	for _, p := range paths {
		fmt.Fprintf(stdout, "wrote %s\n", p)
	}
	return 0
}
