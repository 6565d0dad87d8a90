package tekscope

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Setting maps a named device setting to its command and value codecs.
// Encode turns a caller value into the command argument; Decode turns the
// query reply into a Go value.
type Setting struct {
	Command string
	Encode  func(v any) (string, error)
	Decode  func(reply string) (any, error)
}

var settings = map[string]Setting{
	"header":        {Command: "HEADER", Encode: encodeSwitch("ON", "OFF"), Decode: decodeSwitch("ON", "OFF")},
	"acquire-state": {Command: "ACQUIRE:STATE", Encode: encodeSwitch("RUN", "STOP"), Decode: decodeSwitch("RUN", "STOP")},
	"data-source":   {Command: "DATA:SOURCE", Encode: encodeWord, Decode: decodeWord},
	"data-width":    {Command: "DATA:WIDTH", Encode: encodeWidth, Decode: decodeWidth},
	"data-encoding": {Command: "DATA:ENCDG", Encode: encodeWord, Decode: decodeWord},
	"data-start":    {Command: "DATA:START", Encode: encodeInt, Decode: decodeInt},
	"data-stop":     {Command: "DATA:STOP", Encode: encodeInt, Decode: decodeInt},
	"point-format":  {Command: "WFMPRE:PT_FMT", Encode: encodeWord, Decode: decodeWord},
	"x-units":       {Command: "WFMPRE:XUNIT", Encode: encodeQuoted, Decode: decodeQuoted},
	"y-units":       {Command: "WFMPRE:YUNIT", Encode: encodeQuoted, Decode: decodeQuoted},
}

// LookupSetting returns the table entry for name.
func LookupSetting(name string) (Setting, bool) {
	st, ok := settings[name]
	return st, ok
}

// SettingNames lists the known settings in sorted order.
func SettingNames() []string {
	names := make([]string, 0, len(settings))
	for name := range settings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get queries a named setting and decodes the reply.
func (s *Scope) Get(name string) (any, error) {
	st, ok := settings[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownSetting, name)
	}
	reply, err := s.ch.SendQuery(st.Command)
	if err != nil {
		return nil, err
	}
	v, err := st.Decode(reply)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", name)
	}
	return v, nil
}

// Set encodes v and sends it as the value of a named setting.
func (s *Scope) Set(name string, v any) error {
	st, ok := settings[name]
	if !ok {
		return errors.Wrap(ErrUnknownSetting, name)
	}
	arg, err := st.Encode(v)
	if err != nil {
		return errors.Wrapf(err, "%s", name)
	}
	return s.ch.SendCommand(st.Command, arg)
}

func encodeSwitch(on, off string) func(any) (string, error) {
	return func(v any) (string, error) {
		switch x := v.(type) {
		case bool:
			if x {
				return on, nil
			}
			return off, nil
		case string:
			switch {
			case strings.EqualFold(x, on), x == "1":
				return on, nil
			case strings.EqualFold(x, off), x == "0":
				return off, nil
			}
		}
		return "", fmt.Errorf("want true/false or %s/%s, got %v", on, off, v)
	}
}

func decodeSwitch(on, off string) func(string) (any, error) {
	return func(reply string) (any, error) {
		switch {
		case reply == "1", strings.EqualFold(reply, on):
			return true, nil
		case reply == "0", strings.EqualFold(reply, off):
			return false, nil
		}
		return nil, errors.Wrapf(ErrProtocolFormat, "expected %s or %s, received %q", on, off, reply)
	}
}

func encodeWord(v any) (string, error) {
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" || strings.ContainsAny(s, " \t\r\n;") {
		return "", fmt.Errorf("invalid argument %q", s)
	}
	return s, nil
}

func decodeWord(reply string) (any, error) {
	return reply, nil
}

func encodeInt(v any) (string, error) {
	switch x := v.(type) {
	case int:
		return strconv.Itoa(x), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return "", fmt.Errorf("want an integer, got %q", x)
		}
		return strconv.Itoa(n), nil
	}
	return "", fmt.Errorf("want an integer, got %v", v)
}

func decodeInt(reply string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil {
		return nil, errors.Wrapf(ErrProtocolFormat, "expected an integer, received %q", reply)
	}
	return n, nil
}

func encodeWidth(v any) (string, error) {
	if w, ok := v.(SampleWidth); ok {
		v = int(w)
	}
	s, err := encodeInt(v)
	if err != nil {
		return "", err
	}
	if s != "1" && s != "2" {
		return "", fmt.Errorf("width must be 1 or 2, got %s", s)
	}
	return s, nil
}

func decodeWidth(reply string) (any, error) {
	n, err := decodeInt(reply)
	if err != nil {
		return nil, err
	}
	w := SampleWidth(n.(int))
	if !w.Valid() {
		return nil, errors.Wrapf(ErrProtocolFormat, "width %d", w)
	}
	return w, nil
}

func encodeQuoted(v any) (string, error) {
	s := fmt.Sprint(v)
	if strings.Contains(s, `"`) {
		return "", fmt.Errorf("value %q contains a quote", s)
	}
	return `"` + s + `"`, nil
}

func decodeQuoted(reply string) (any, error) {
	s, err := unquote(reply)
	if err != nil {
		return nil, err
	}
	return s, nil
}
