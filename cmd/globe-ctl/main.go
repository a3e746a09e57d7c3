package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/alecthomas/kong"
	"github.com/sudorandom/paygate-globe/pkg/assets"
	"github.com/sudorandom/paygate-globe/pkg/config"
	"github.com/sudorandom/paygate-globe/pkg/control"
)

type CLI struct {
	URL string `default:"ws://127.0.0.1:8090/ws" help:"Control socket of a running globe."`

	Watch  WatchCmd  `cmd:"" help:"Print every city the globe moves to."`
	Select SelectCmd `cmd:"" help:"Move the globe to a city."`

	FetchTexture FetchTextureCmd `cmd:"" help:"Download the earth texture for use with --texture offline."`
}

type WatchCmd struct {
	JSON    bool          `help:"Dump raw JSON messages instead of a summary."`
	Timeout time.Duration `help:"How long to watch before exiting (0 for infinite)."`
}

type SelectCmd struct {
	Index   int           `arg:"" help:"Zero-based city index."`
	Timeout time.Duration `default:"5s" help:"How long to wait for the globe to confirm."`
}

type FetchTextureCmd struct {
	Source  string        `help:"Texture URL (defaults to the built-in sources)."`
	Dir     string        `default:"." help:"Directory to save the texture into."`
	Timeout time.Duration `default:"2m" help:"How long the download may take."`
}

// Visits counts how often each city was shown.
type Visits struct {
	counts map[string]int
	total  int
	start  time.Time
}

func NewVisits() *Visits {
	return &Visits{counts: make(map[string]int), start: time.Now()}
}

func (v *Visits) Record(msg control.Message) {
	if msg.Type != control.TypeLocation {
		return
	}
	v.counts[msg.Name]++
	v.total++
}

// Report writes the per-city summary, most visited first.
func (v *Visits) Report(w io.Writer) {
	type visit struct {
		Name  string
		Count int
	}
	list := make([]visit, 0, len(v.counts))
	for name, n := range v.counts {
		list = append(list, visit{name, n})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].Name < list[j].Name
	})

	fmt.Fprintf(w, "--------------------------------------------------\n")
	fmt.Fprintf(w, "%d location changes in %s\n", v.total, time.Since(v.start).Round(time.Second))
	for _, e := range list {
		fmt.Fprintf(w, "  %-20s %d\n", e.Name, e.Count)
	}
	fmt.Fprintf(w, "--------------------------------------------------\n")
}

func formatLocation(msg control.Message) string {
	place := msg.Name
	if msg.Country != "" {
		place += " (" + config.CountryName(msg.Country) + ")"
	}
	return fmt.Sprintf("#%d %s %.4f,%.4f", msg.Index, place, msg.Lat, msg.Lon)
}

func (w *WatchCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}

	log.Printf("Connecting to %s", cli.URL)
	c, err := control.Dial(ctx, cli.URL)
	if err != nil {
		return err
	}

	visits := NewVisits()
	done := make(chan error, 1)
	go func() {
		for {
			msg, err := c.Next()
			if err != nil {
				done <- err
				return
			}
			visits.Record(msg)
			if w.JSON {
				b, _ := json.Marshal(msg)
				fmt.Println(string(b))
				continue
			}
			if msg.Type == control.TypeLocation {
				fmt.Printf("%s  %s\n", time.Now().Format("15:04:05"), formatLocation(msg))
			}
		}
	}()

	select {
	case err := <-done:
		return fmt.Errorf("connection lost: %w", err)
	case <-ctx.Done():
		log.Println("Exiting...")
		if err := c.Close(); err != nil {
			log.Printf("close: %v", err)
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		if !w.JSON {
			visits.Report(os.Stdout)
		}
		return nil
	}
}

func (s *SelectCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()

	c, err := control.Dial(ctx, cli.URL)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}()

	msg, err := selectAndWait(ctx, c, s.Index)
	if err != nil {
		return err
	}
	fmt.Println(formatLocation(msg))
	return nil
}

func (f *FetchTextureCmd) Run(*CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	l := assets.NewTextureLoader(f.Source, nil)
	if l.File != "" {
		return fmt.Errorf("%q is not an http(s) URL", f.Source)
	}
	path, err := l.Download(ctx, f.Dir)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// selectAndWait asks for index and waits for the globe to report it, skipping the
// greeting that describes the city shown before the request.
func selectAndWait(ctx context.Context, c *control.Client, index int) (control.Message, error) {
	if err := c.Select(index); err != nil {
		return control.Message{}, err
	}
	type result struct {
		msg control.Message
		err error
	}
	res := make(chan result, 1)
	go func() {
		for {
			msg, err := c.Next()
			if err != nil {
				res <- result{err: err}
				return
			}
			switch {
			case msg.Type == control.TypeError:
				res <- result{err: errors.New(msg.Error)}
				return
			case msg.Type == control.TypeLocation && msg.Index == index:
				res <- result{msg: msg}
				return
			}
		}
	}()
	select {
	case r := <-res:
		return r.msg, r.err
	case <-ctx.Done():
		return control.Message{}, fmt.Errorf("waiting for city %d: %w", index, ctx.Err())
	}
}

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("globe-ctl"),
		kong.Description("Drive and follow a running globe over its control socket."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(kctx.Run(&cli))
}
