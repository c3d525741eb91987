package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/dmitrijs2005/questkeeper/internal/services"
)

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

var ErrBadAssignment = errors.New("expected field=value")

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prints a passphrase prompt to w and reads it from the
// terminal without echo.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func GetPassword(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Vault passphrase: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// ParseYesNo accepts y/yes/n/no in any case. Anything else is an error.
func ParseYesNo(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, fmt.Errorf("answer y or n, got %q", s)
	}
}

// ParseAssignments turns field=value pairs into a partial update. Field
// names are case-insensitive; user, pass, lv and max are accepted as short
// forms.
func ParseAssignments(args []string) (services.Fields, error) {
	var f services.Fields
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return services.Fields{}, fmt.Errorf("%q: %w", arg, ErrBadAssignment)
		}

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "username", "user":
			v := value
			f.Username = &v
		case "password", "pass":
			v := value
			f.Password = &v
		case "level", "lv":
			n, err := parseInt(key, value)
			if err != nil {
				return services.Fields{}, err
			}
			f.Level = &n
		case "xp":
			n, err := parseInt(key, value)
			if err != nil {
				return services.Fields{}, err
			}
			f.XP = &n
		case "xpmax", "xp_max", "xp-max", "max":
			n, err := parseInt(key, value)
			if err != nil {
				return services.Fields{}, err
			}
			f.XPMax = &n
		default:
			return services.Fields{}, fmt.Errorf("unknown field %q", key)
		}
	}
	return f, nil
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number, got %q", key, value)
	}
	return n, nil
}
