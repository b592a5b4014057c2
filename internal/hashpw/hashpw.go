// Package hashpw reads a password and prints its bcrypt hash, ready to be
// pasted into ADMIN_HASH or the principals map of the config file.
package hashpw

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/dmitrijs2005/lockerkeeper/internal/common"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/auth"
)

// readPassword and isTerminal are test seams for the terminal calls.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var ErrEmptyPassword = errors.New("empty password")

// Run parses args, reads the password from in and writes the hash to out.
// When in is the terminal the password is read twice without echo;
// otherwise the first line of in is taken as is.
func Run(args []string, in *os.File, out, prompt io.Writer) error {
	fs := flag.NewFlagSet("hashpw", flag.ContinueOnError)
	fs.SetOutput(prompt)
	cost := fs.Int("cost", auth.BcryptCost, "bcrypt cost")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cost < bcrypt.MinCost || *cost > bcrypt.MaxCost {
		return fmt.Errorf("%w: cost must be between %d and %d", common.ErrorValidation, bcrypt.MinCost, bcrypt.MaxCost)
	}

	var (
		pw  []byte
		err error
	)
	if isTerminal(int(in.Fd())) {
		pw, err = readTwice(int(in.Fd()), prompt)
	} else {
		pw, err = readLine(in)
	}
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	hash, err := auth.HashPasswordWithCost(pw, *cost)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}

func readTwice(fd int, prompt io.Writer) ([]byte, error) {
	fmt.Fprint(prompt, "Enter password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return nil, err
	}

	fmt.Fprint(prompt, "Repeat password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(prompt)
	defer common.WipeByteArray(second)
	if err != nil {
		common.WipeByteArray(first)
		return nil, err
	}

	if string(first) != string(second) {
		common.WipeByteArray(first)
		return nil, errors.New("passwords do not match")
	}
	if len(first) == 0 {
		return nil, ErrEmptyPassword
	}
	return first, nil
}

func readLine(r io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyPassword
		}
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, ErrEmptyPassword
	}
	return []byte(line), nil
}
