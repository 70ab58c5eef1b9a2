// translit converts Uzbek text between the Latin and Cyrillic alphabets.
//
//	translit "O'zbekiston"            # Ўзбекистон
//	echo "Тошкент" | translit         # Toshkent
//	translit -d latin-to-cyrillic -f post.html
//	translit --detect "Салом"         # cyrillic (latin=0 cyrillic=5)
//	translit -i                       # interactive preview
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jusunglee/uzscript/internal/conversion"
	"github.com/jusunglee/uzscript/internal/db/dbopen"
	"github.com/jusunglee/uzscript/internal/logger"
	"github.com/jusunglee/uzscript/internal/transliteration"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

func main() {
	if err := mainE(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

type options struct {
	direction transliteration.Direction
	file      string
	detect    bool
	args      []string
}

func mainE() error {
	fs := ff.NewFlagSet("translit")
	var (
		direction   = fs.String('d', "direction", "auto", "auto, latin-to-cyrillic or cyrillic-to-latin")
		file        = fs.String('f', "file", "", "Read input from this file instead of args or stdin")
		interactive = fs.Bool('i', "interactive", "Open the interactive preview")
		detect      = fs.BoolLong("detect", "Print the detected script instead of converting")
		databaseURL = fs.StringLong("database-url", "", "Record conversions in this database (optional)")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("TRANSLIT")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		if errors.Is(err, ff.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parsing flags: %w", err)
	}

	dir, err := transliteration.ParseDirection(*direction)
	if err != nil {
		return err
	}

	if *interactive {
		p := tea.NewProgram(newModel(dir), tea.WithAltScreen())
		_, err := p.Run()
		return err
	}

	ctx := context.Background()
	var conv *conversion.Converter
	if *databaseURL != "" {
		repo, err := dbopen.Open(ctx, *databaseURL)
		if err != nil {
			return err
		}
		defer repo.Close()
		conv = conversion.NewConverter(repo, logger.New())
	}

	return execute(ctx, conv, options{
		direction: dir,
		file:      *file,
		detect:    *detect,
		args:      fs.GetArgs(),
	}, os.Stdin, os.Stdout)
}

// execute converts the input selected by opts and writes it to out. A
// non-nil conv stores the conversion in history.
func execute(ctx context.Context, conv *conversion.Converter, opts options, stdin io.Reader, out io.Writer) error {
	text, err := readInput(opts.args, opts.file, stdin)
	if err != nil {
		return err
	}

	if opts.detect {
		latin, cyrillic := transliteration.CountLetters(text)
		_, err := fmt.Fprintf(out, "%s (latin=%d cyrillic=%d)\n", transliteration.DetectScript(text), latin, cyrillic)
		return err
	}

	var result string
	if conv != nil {
		outcome, err := conv.Convert(ctx, conversion.Request{
			Text:      text,
			Direction: opts.direction,
			Source:    conversion.SourceCLI,
			Save:      true,
		})
		if err != nil {
			return err
		}
		result = outcome.Text
	} else {
		result = transliteration.Transliterate(text, opts.direction)
	}

	if !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	_, err = io.WriteString(out, result)
	return err
}

// readInput prefers positional args, then file, then stdin.
func readInput(args []string, file string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", file, err)
		}
		return string(b), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(b), nil
}
