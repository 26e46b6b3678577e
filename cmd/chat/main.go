// Command chat is a terminal front-end for the same session and fetcher
// core the web server uses.
package main

import (
	"log"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
