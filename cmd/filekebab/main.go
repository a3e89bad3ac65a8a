// Command filekebab keeps the names of a notes vault in kebab-case.
package main

import "filekebab/cmd/filekebab/cmd"

func main() {
	cmd.Execute()
}
