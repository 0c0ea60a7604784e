package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/localnerve/blockrelease/internal/services"
	"github.com/localnerve/blockrelease/tests/helpers"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	var actor string
	flag.StringVar(&actor, "actor", "dev", "subject of the printed bearer token")
	flag.Parse()

	usage := `
Run a database and the blockrelease service in containers, using the
environment variables from the .env file. The service runs in jwt auth mode;
a bearer token for ACTOR is printed once it is healthy.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH] [-actor ACTOR]

ENV_FILE_PATH: path to the .env file (DB_TYPE, DB_IMAGE, DEBUG_CONTAINER...)

example
  testcontainers -f /path/to/something/.env -actor alice
`
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGTSTP, syscall.SIGQUIT)

	var testContainers *helpers.TestContainers
	go func() {
		var err error
		testContainers, err = helpers.CreateAllTestContainers(nil)
		if err != nil {
			log.Fatalf("Failed to create test containers: %v\n", err)
		}

		baseURL, err := testContainers.BaseURL(context.Background())
		if err != nil {
			log.Printf("Failed to resolve service address: %v\n", err)
			return
		}
		jwt, err := services.NewJWTProvider(helpers.TestJWTSecret)
		if err != nil {
			log.Printf("Failed to create token issuer: %v\n", err)
			return
		}
		token, err := jwt.IssueToken(actor, "", 12*time.Hour)
		if err != nil {
			log.Printf("Failed to issue token: %v\n", err)
			return
		}
		fmt.Printf("\nblockrelease: %s/api\nAuthorization: Bearer %s\n\n", baseURL, token)
	}()

	sig := <-sigs
	log.Printf("\nReceived signal: %v, terminating test containers...\n", sig)
	if testContainers != nil {
		testContainers.Terminate(nil)
	}
}
