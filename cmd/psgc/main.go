// Command psgc manages the PSGC dataset: migrations, CSV import and export,
// source conversion and the response cache.
package main

import "os"

func main() {
	os.Exit(execute(newApp(os.Stdin, os.Stdout, os.Stderr), os.Args[1:]))
}
