package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/account"
)

// loadCredentials reads a "username:password" per-line file into the
// static credentials table (spec section 3). Blank lines and lines
// starting with '#' are ignored.
func loadCredentials(path string) (account.Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	creds := make(account.Credentials)
	sc := bufio.NewScanner(f)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		user, pass, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("credentials file %s:%d: expected username:password", path, lineNo)
		}
		creds[user] = pass
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return creds, nil
}
