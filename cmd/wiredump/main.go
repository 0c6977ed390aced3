package main

import (
	"bufio"
	"container/list"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	wperrors "github.com/wirepack/wirepack/errors"
	"github.com/wirepack/wirepack/wire"
)

var (
	indexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	refStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

func main() {
	var (
		maxValues = pflag.IntP("num", "n", 0, "Stop after this many values (0 = all)")
		maxDepth  = pflag.Int("max-depth", 32, "Deepest nesting level to render")
		verbose   = pflag.BoolP("verbose", "v", false, "Enable debug logging")
	)
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: wiredump [flags] [file]")
		fmt.Fprintln(os.Stderr, "Dumps a stream of encoded values; reads stdin when no file is given.")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		wire.SetLogger(logger)
	}

	in := os.Stdin
	if pflag.NArg() > 0 {
		f, err := os.Open(pflag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	if err := dump(in, os.Stdout, *maxValues, *maxDepth); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func dump(in io.Reader, out io.Writer, maxValues, maxDepth int) error {
	s, err := wire.New()
	if err != nil {
		return err
	}

	// One buffer for the whole stream: files and pipes have no
	// ReadByte, and a per-call buffer would swallow the bytes of every
	// value after the first.
	src := bufio.NewReader(in)

	for i := 0; maxValues == 0 || i < maxValues; i++ {
		v, err := s.Deserialize(src)
		if errors.Is(err, io.EOF) && !wperrors.IsCorruption(err) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "%s %s\n",
				indexStyle.Render(fmt.Sprintf("#%d", i)),
				errorStyle.Render(err.Error()))
			return err
		}

		r := &renderer{out: out, maxDepth: maxDepth, seen: map[uintptr]int{}}
		fmt.Fprintf(out, "%s ", indexStyle.Render(fmt.Sprintf("#%d", i)))
		r.render(v, 0)
		fmt.Fprintln(out)
	}
	return nil
}

// renderer prints one decoded value as an indented tree. Reference
// values are numbered on first sight; later occurrences print as @N so
// shared and cyclic structures stay readable and finite.
type renderer struct {
	out      io.Writer
	maxDepth int
	seen     map[uintptr]int
}

func (r *renderer) render(v any, depth int) {
	if v == nil {
		fmt.Fprint(r.out, valueStyle.Render("null"))
		return
	}
	if depth > r.maxDepth {
		fmt.Fprint(r.out, errorStyle.Render("..."))
		return
	}

	if id, ok := r.mark(v); !ok {
		fmt.Fprint(r.out, refStyle.Render(fmt.Sprintf("@%d", id)))
		return
	}

	switch x := v.(type) {
	case string:
		fmt.Fprint(r.out, valueStyle.Render(fmt.Sprintf("%q", x)))
	case []byte:
		fmt.Fprintf(r.out, "%s %s",
			typeStyle.Render(fmt.Sprintf("bytes[%d]", len(x))),
			valueStyle.Render(preview(x)))
	case []any:
		r.renderSeq("[]any", len(x), depth, func(i int) {
			r.render(x[i], depth+1)
		})
	case map[any]any:
		r.renderMapLines("map", len(x), depth, func(emit func(k string, val any)) {
			for k, val := range x {
				emit(fmt.Sprintf("%v", k), val)
			}
		})
	case map[string]any:
		r.renderMapLines("map", len(x), depth, func(emit func(k string, val any)) {
			keys := make([]string, 0, len(x))
			for k := range x {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				emit(k, x[k])
			}
		})
	case *list.List:
		vals := make([]any, 0, x.Len())
		for el := x.Front(); el != nil; el = el.Next() {
			vals = append(vals, el.Value)
		}
		r.renderSeq("list", len(vals), depth, func(i int) {
			r.render(vals[i], depth+1)
		})
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice:
			r.renderSeq(rv.Type().String(), rv.Len(), depth, func(i int) {
				r.render(rv.Index(i).Interface(), depth+1)
			})
		case reflect.Pointer:
			if rv.Elem().Kind() == reflect.Struct {
				r.renderStruct(rv.Elem(), depth)
				return
			}
			fmt.Fprintf(r.out, "%s %s",
				typeStyle.Render(rv.Type().String()),
				valueStyle.Render(fmt.Sprintf("%v", rv.Elem().Interface())))
		default:
			fmt.Fprintf(r.out, "%s %s",
				typeStyle.Render(rv.Type().String()),
				valueStyle.Render(fmt.Sprintf("%v", v)))
		}
	}
}

// mark registers a reference value. It returns the existing number and
// false when the value was already rendered.
func (r *renderer) mark(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer:
	default:
		return 0, true
	}
	if rv.Kind() == reflect.Slice && rv.Len() == 0 {
		return 0, true
	}
	ptr := rv.Pointer()
	if id, ok := r.seen[ptr]; ok {
		return id, false
	}
	r.seen[ptr] = len(r.seen)
	return 0, true
}

func (r *renderer) renderSeq(label string, n, depth int, each func(int)) {
	fmt.Fprintf(r.out, "%s", typeStyle.Render(fmt.Sprintf("%s(%d)", label, n)))
	for i := 0; i < n; i++ {
		fmt.Fprintf(r.out, "\n%s- ", strings.Repeat("  ", depth+1))
		each(i)
	}
}

func (r *renderer) renderMapLines(label string, n, depth int, iter func(emit func(k string, val any))) {
	fmt.Fprintf(r.out, "%s", typeStyle.Render(fmt.Sprintf("%s(%d)", label, n)))
	iter(func(k string, val any) {
		fmt.Fprintf(r.out, "\n%s%s: ", strings.Repeat("  ", depth+1), valueStyle.Render(k))
		r.render(val, depth+1)
	})
}

func (r *renderer) renderStruct(sv reflect.Value, depth int) {
	t := sv.Type()
	fmt.Fprintf(r.out, "%s", typeStyle.Render(t.String()))
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).PkgPath != "" {
			continue
		}
		fmt.Fprintf(r.out, "\n%s%s: ",
			strings.Repeat("  ", depth+1), valueStyle.Render(t.Field(i).Name))
		r.render(sv.Field(i).Interface(), depth+1)
	}
}

func preview(b []byte) string {
	const max = 16
	if len(b) <= max {
		return fmt.Sprintf("% x", b)
	}
	return fmt.Sprintf("% x ...", b[:max])
}
