package tekscope

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Channel sends text commands and queries over a Transport.
// It holds no state about the device; every query turns headers off first.
type Channel struct {
	t           Transport
	log         logrus.FieldLogger
	maxResponse int
}

// NewChannel wraps t. maxResponse bounds ReadResponse; 0 means unbounded.
func NewChannel(t Transport, log logrus.FieldLogger, maxResponse int) *Channel {
	if log == nil {
		log = discardLogger()
	}
	return &Channel{t: t, log: log, maxResponse: maxResponse}
}

// SendCommand writes "<name> <args...>\r". No response is read.
func (c *Channel) SendCommand(name string, args ...string) error {
	msg := strings.Join(append([]string{name}, args...), " ")
	c.log.WithField("command", msg).Debug("send")
	if _, err := c.t.Write([]byte(msg + "\r")); err != nil {
		return errors.Wrapf(err, "send %q", msg)
	}
	return nil
}

// HeadersOff stops the scope from echoing command names in query replies.
func (c *Channel) HeadersOff() error {
	return c.SendCommand("HEADER", "OFF")
}

// HeadersOn re-enables header echo. Any later SendQuery turns it off again.
func (c *Channel) HeadersOn() error {
	return c.SendCommand("HEADER", "ON")
}

// SendQuery turns headers off, sends "<query>?" and returns the one-line
// reply with trailing whitespace removed.
func (c *Channel) SendQuery(query string) (string, error) {
	if err := c.HeadersOff(); err != nil {
		return "", err
	}
	if err := c.SendCommand(query + "?"); err != nil {
		return "", err
	}
	line, err := c.t.ReadLine()
	if err != nil {
		return "", errors.Wrapf(err, "read reply to %s?", query)
	}
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	c.log.WithFields(logrus.Fields{"query": query, "reply": line}).Debug("reply")
	return line, nil
}

// QueryQuotedString is SendQuery for replies of the form "…"; the quotes are stripped.
func (c *Channel) QueryQuotedString(query string) (string, error) {
	resp, err := c.SendQuery(query)
	if err != nil {
		return "", err
	}
	return unquote(resp)
}

// QueryInt is SendQuery for integer replies.
func (c *Channel) QueryInt(query string) (int, error) {
	resp, err := c.SendQuery(query)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(resp))
	if err != nil {
		return 0, errors.Wrapf(ErrProtocolFormat, "%s? expected an integer, received %q", query, resp)
	}
	return n, nil
}

// ReadResponse reads one unterminated response; see ReadResponse.
func (c *Channel) ReadResponse() ([]byte, error) {
	return ReadResponse(c.t, c.maxResponse)
}

func unquote(resp string) (string, error) {
	if len(resp) >= 2 && resp[0] == '"' && resp[len(resp)-1] == '"' {
		return resp[1 : len(resp)-1], nil
	}
	return "", errors.Wrapf(ErrProtocolFormat, "expected a quoted string, received %q", resp)
}
