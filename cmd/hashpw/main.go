// Command hashpw prints an argon2id hash suitable for AUTH_PASSWORD.
// The password is read from the first line of stdin.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spacesedan/sentiscope/internal/auth"
	"github.com/spacesedan/sentiscope/internal/logging"
)

func main() {
	logging.InitLogger("info")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		if err != nil {
			slog.Error("[HashPW] Failed to read password", slog.String("error", err.Error()))
		} else {
			slog.Error("[HashPW] Empty password")
		}
		os.Exit(1)
	}

	hash, err := auth.HashPassword(auth.DefaultArgon, password)
	if err != nil {
		slog.Error("[HashPW] Failed to hash password", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// single quotes stop gotenv from expanding the $ separators
	fmt.Printf("AUTH_PASSWORD='%s'\n", hash)
}
