package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"
)

func main() {
	flag.Parse()

	// Missing .env is fine in deployed environments where the vars
	// come from the orchestrator.
	godotenv.Load()

	server, err := Setup()
	if err != nil {
		log.Fatalf("main start failed %v", err)
	}

	server.Run()
}
