package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"mahash/pkg/config"
	"mahash/pkg/linhash"
)

// setupCloseHandler closes every relation the session has open on SIGINT or
// SIGTERM, so a killed REPL still leaves its .info files consistent.
func setupCloseHandler(s *linhash.Session) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		s.Close()
		os.Exit(0)
	}()
}

func main() {
	promptFlag := flag.Bool("c", true, "use prompt?")
	flag.Parse()

	s := linhash.NewSession()
	defer s.Close()
	setupCloseHandler(s)

	r := linhash.Repl(s)
	prompt := config.GetPrompt(*promptFlag)
	r.Run(uuid.New(), prompt, nil, nil)
}
