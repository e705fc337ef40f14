// Command hash-generator produces the bcrypt hash of an API key for the
// auth.api_key_hash configuration setting.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	var key string
	if flag.NArg() > 0 {
		key = flag.Arg(0)
	} else {
		fmt.Fprint(os.Stderr, "API key: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			log.Fatalf("failed to read API key: %v", err)
		}
		key = strings.TrimSpace(line)
	}

	if key == "" {
		log.Fatal("API key cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), *cost)
	if err != nil {
		log.Fatalf("failed to generate hash: %v", err)
	}

	fmt.Println(string(hash))
}
