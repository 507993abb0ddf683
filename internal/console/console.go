// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package console reads single key presses from a terminal.
package console

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// Console is a terminal that can be switched between canonical and cbreak
// modes.
type Console struct {
	in *os.File
	r  *bufio.Reader

	canAttr    unix.Termios
	cbreakAttr unix.Termios
}

// New returns a console reading from in. It fails if in is not a terminal.
func New(in *os.File) (*Console, error) {
	if in == nil {
		return nil, errors.New("console requires an input file")
	}
	c := &Console{in: in, r: bufio.NewReader(in)}
	if err := termios.Tcgetattr(in.Fd(), &c.canAttr); err != nil {
		return nil, errors.Wrapf(err, "%s is not a terminal", in.Name())
	}
	c.cbreakAttr = c.canAttr
	termios.Cfmakecbreak(&c.cbreakAttr)
	return c, nil
}

// CBreakMode makes key presses available without waiting for a newline.
func (c *Console) CBreakMode() error {
	return errors.Wrap(termios.Tcsetattr(c.in.Fd(), termios.TCIFLUSH, &c.cbreakAttr), "set cbreak mode")
}

// CanonicalMode restores the terminal attributes found by New.
func (c *Console) CanonicalMode() error {
	return errors.Wrap(termios.Tcsetattr(c.in.Fd(), termios.TCIFLUSH, &c.canAttr), "set canonical mode")
}

// ReadKey waits for a key press.
func (c *Console) ReadKey() (rune, error) {
	r, _, err := c.r.ReadRune()
	return r, err
}
