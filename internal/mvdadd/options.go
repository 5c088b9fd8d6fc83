package mvdadd

import (
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/nmerge/core/errors"
	"github.com/FocuswithJustin/nmerge/core/mvd"
	"github.com/FocuswithJustin/nmerge/internal/logging"
)

// Options are the settings of one add operation.
type Options struct {
	ShortName string `short:"s" help:"Short name of the new version."`
	LongName  string `short:"l" help:"Long name of the new version."`
	Group     string `short:"g" help:"Group the new version belongs to."`
	MinMatch  int    `short:"m" default:"3" help:"Shortest run of shared text to align."`
	Format    string `enum:"json,text" default:"json" help:"Report format (json or text)."`
	XZ        bool   `name:"xz" help:"Compress the report with xz."`
	LogLevel  string `name:"log-level" help:"Reconfigure logging at this level (debug, info, warn, error)."`
	LogFormat string `name:"log-format" help:"Reconfigure logging in this format (json or text)."`
}

// optionsGrammar splits an options string into flags and values.
// Example: -s KJV --long-name="King James" --min-match=4 --xz
//
//nolint:govet // participle grammar tags are not standard struct tags
type optionsGrammar struct {
	Items []*optionItem `parser:"@@*"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type optionItem struct {
	Flag  string  `parser:"  @Flag"`
	Value *string `parser:"  ( \"=\" @(String | Word) )?"`
	Arg   *string `parser:"| @(String | Word)"`
}

var optionsLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Flag", Pattern: `--?[A-Za-z][\w-]*`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Assign", Pattern: `=`},
	{Name: "Word", Pattern: `[^\s"=]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var optionsParser = participle.MustBuild[optionsGrammar](
	participle.Lexer(optionsLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
)

// splitOptions turns options text into command-line style arguments.
func splitOptions(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	parsed, err := optionsParser.ParseString("", text)
	if err != nil {
		return nil, errors.NewParse("options", text, err.Error())
	}
	var args []string
	for _, it := range parsed.Items {
		switch {
		case it.Arg != nil:
			args = append(args, *it.Arg)
		case it.Value != nil:
			args = append(args, it.Flag, *it.Value)
		default:
			args = append(args, it.Flag)
		}
	}
	return args, nil
}

// ParseOptions parses the options text passed to Process.
func ParseOptions(text string) (*Options, error) {
	args, err := splitOptions(text)
	if err != nil {
		return nil, err
	}
	var opts Options
	parser, err := kong.New(&opts,
		kong.Name(name),
		kong.NoDefaultHelp(),
		kong.Exit(func(int) {}),
		kong.Writers(io.Discard, io.Discard),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build options parser")
	}
	if _, err := parser.Parse(args); err != nil {
		return nil, errors.NewParse("options", text, err.Error())
	}
	if opts.MinMatch < 1 {
		return nil, &errors.ValidationError{Field: "min-match", Value: strconv.Itoa(opts.MinMatch), Message: "must be at least 1"}
	}
	if _, _, err := opts.logConfig(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// logConfig returns the requested logger settings. Unset fields fall back to
// info level and JSON output.
func (o *Options) logConfig() (logging.Level, logging.Format, error) {
	level, format := logging.LevelInfo, logging.FormatJSON
	var err error
	if o.LogLevel != "" {
		if level, err = logging.ParseLevel(o.LogLevel); err != nil {
			return level, format, err
		}
	}
	if o.LogFormat != "" {
		if format, err = logging.ParseFormat(o.LogFormat); err != nil {
			return level, format, err
		}
	}
	return level, format, nil
}

// meta returns the version names carried by the options.
func (o *Options) meta() mvd.Meta {
	return mvd.Meta{ShortName: o.ShortName, LongName: o.LongName, Group: o.Group}
}
