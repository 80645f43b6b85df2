// Command hashpass prints a bcrypt hash of a password read from stdin, for
// seeding users in the memory store configuration.
//
//	echo -n 's3cret' | hashpass
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rhuss/tokengate/pkg/claims"
)

func main() {
	if err := run(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "hashpass:", err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return fmt.Errorf("empty password")
	}

	hash, err := claims.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}
